package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/biniyam0960/Student-information-System/internal/academics"
	"github.com/biniyam0960/Student-information-System/internal/models"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
	"github.com/biniyam0960/Student-information-System/pkg/events"
	"github.com/biniyam0960/Student-information-System/pkg/jobs"
)

type enrollmentRepository interface {
	Admit(ctx context.Context, studentID, sectionID int64, decide academics.AdmissionFunc) (*models.Enrollment, error)
	Drop(ctx context.Context, studentID, sectionID int64, promote bool) (*models.DropResult, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.StudentEnrollment, error)
	ListBySection(ctx context.Context, sectionID int64) ([]models.SectionEnrollment, error)
}

type studentResolver interface {
	ResolveByUser(ctx context.Context, userID int64) (*models.StudentDetail, error)
}

type sectionReader interface {
	FindByID(ctx context.Context, id int64) (*models.Section, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type enrollmentMetrics interface {
	RecordEnrollment(outcome string)
}

// EnrollmentConfig tunes the enrollment workflow.
type EnrollmentConfig struct {
	AutoPromote bool
}

// EnrollmentService admits students into sections and releases their seats.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentResolver
	sections  sectionReader
	queue     jobEnqueuer
	metrics   enrollmentMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cfg       EnrollmentConfig
}

// NewEnrollmentService constructs EnrollmentService. queue and metrics may be nil.
func NewEnrollmentService(repo enrollmentRepository, students studentResolver, sections sectionReader, queue jobEnqueuer, metrics enrollmentMetrics, validate *validator.Validate, logger *zap.Logger, cfg EnrollmentConfig) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:      repo,
		students:  students,
		sections:  sections,
		queue:     queue,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Enroll requests a seat for the caller's student record. A full section puts the student on the
// waitlist.
func (s *EnrollmentService) Enroll(ctx context.Context, userID int64, req models.EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	student, err := s.students.ResolveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.EnrollStudent(ctx, student.ID, req.SectionID)
}

// EnrollStudent runs the admission decision for a known student id.
func (s *EnrollmentService) EnrollStudent(ctx context.Context, studentID, sectionID int64) (*models.Enrollment, error) {
	enrollment, err := s.repo.Admit(ctx, studentID, sectionID, academics.Admit)
	if err != nil {
		s.record("rejected")
		return nil, domainError(err, "failed to enroll")
	}

	s.record(string(enrollment.Status))
	eventType := events.TypeEnrolled
	if enrollment.Status == models.EnrollmentStatusWaitlisted {
		eventType = events.TypeWaitlisted
	}
	s.enqueue(jobs.Job{Type: JobPublishEvent, Payload: events.New(eventType, *enrollment)})

	s.logger.Info("enrollment decided",
		zap.Int64("student_id", studentID),
		zap.Int64("section_id", sectionID),
		zap.String("status", string(enrollment.Status)),
	)
	return enrollment, nil
}

// Drop releases the caller's enrollment in a section.
func (s *EnrollmentService) Drop(ctx context.Context, userID int64, req models.DropRequest) (*models.DropResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drop payload")
	}
	student, err := s.students.ResolveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.DropStudent(ctx, student.ID, req.SectionID)
}

// DropStudent marks the enrollment dropped and, when enabled, promotes the head of the waitlist.
// Repeating a drop returns the dropped row unchanged.
func (s *EnrollmentService) DropStudent(ctx context.Context, studentID, sectionID int64) (*models.DropResult, error) {
	result, err := s.repo.Drop(ctx, studentID, sectionID, s.cfg.AutoPromote)
	if err != nil {
		return nil, domainError(err, "failed to drop enrollment")
	}
	if !result.Changed {
		return result, nil
	}

	s.record(string(models.EnrollmentStatusDropped))
	s.enqueue(jobs.Job{Type: JobPublishEvent, Payload: events.New(events.TypeDropped, result.Enrollment)})

	if promoted := result.Promoted; promoted != nil {
		s.record("promoted")
		s.enqueue(jobs.Job{Type: JobPublishEvent, Payload: events.New(events.TypePromoted, *promoted)})
		s.enqueue(jobs.Job{Type: JobPromotionEmail, Payload: PromotionNotice{
			EnrollmentID: promoted.ID,
			StudentID:    promoted.StudentID,
			SectionID:    promoted.SectionID,
		}})
		s.logger.Info("waitlist promoted",
			zap.Int64("section_id", sectionID),
			zap.Int64("student_id", promoted.StudentID),
		)
	}
	return result, nil
}

// ListMine returns every enrollment of the caller, newest first.
func (s *EnrollmentService) ListMine(ctx context.Context, userID int64) ([]models.StudentEnrollment, error) {
	student, err := s.students.ResolveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return items, nil
}

// ListBySection returns the roster of a section, waitlist included.
func (s *EnrollmentService) ListBySection(ctx context.Context, sectionID int64) ([]models.SectionEnrollment, error) {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	items, err := s.repo.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section enrollments")
	}
	return items, nil
}

func (s *EnrollmentService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordEnrollment(outcome)
	}
}

func (s *EnrollmentService) enqueue(job jobs.Job) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification", zap.String("type", job.Type), zap.Error(err))
	}
}

// domainError keeps typed errors raised by the decision rules and hides everything else.
func domainError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
