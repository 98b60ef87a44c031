package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/biniyam0960/Student-information-System/internal/academics"
	"github.com/biniyam0960/Student-information-System/internal/models"
	"github.com/biniyam0960/Student-information-System/internal/repository"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
)

type assignmentRepository interface {
	Create(ctx context.Context, a *models.Assignment) error
	FindByID(ctx context.Context, id int64) (*models.Assignment, error)
	ListBySection(ctx context.Context, sectionID int64) ([]models.Assignment, error)
}

type gradeRepository interface {
	Upsert(ctx context.Context, grade *models.Grade) error
	ListRecordsByStudent(ctx context.Context, studentID int64) ([]models.GradeRecord, error)
	ListRecordsByStudentSection(ctx context.Context, studentID, sectionID int64) ([]models.GradeRecord, error)
}

type gpaCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type gradeStudents interface {
	studentResolver
	Find(ctx context.Context, id int64) (*models.StudentDetail, error)
}

type gradeMetrics interface {
	RecordGPAComputation()
}

// GradeConfig tunes GPA caching.
type GradeConfig struct {
	CacheTTL time.Duration
}

// GradeService manages assignments and scores and derives section finals and GPA.
type GradeService struct {
	assignments assignmentRepository
	grades      gradeRepository
	sections    sectionReader
	students    gradeStudents
	cache       gpaCache
	metrics     gradeMetrics
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         GradeConfig
}

// NewGradeService constructs a GradeService. cache and metrics may be nil.
func NewGradeService(assignments assignmentRepository, grades gradeRepository, sections sectionReader, students gradeStudents, cache gpaCache, metrics gradeMetrics, validate *validator.Validate, logger *zap.Logger, cfg GradeConfig) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		assignments: assignments,
		grades:      grades,
		sections:    sections,
		students:    students,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// CreateAssignment adds a graded item to an existing section.
func (s *GradeService) CreateAssignment(ctx context.Context, req models.CreateAssignmentRequest) (*models.Assignment, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := s.requireSection(ctx, req.SectionID); err != nil {
		return nil, err
	}
	assignment := &models.Assignment{
		SectionID: req.SectionID,
		Title:     req.Title,
		MaxScore:  req.MaxScore,
		Weight:    req.Weight,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// ListAssignments returns the assignments of a section in creation order.
func (s *GradeService) ListAssignments(ctx context.Context, sectionID int64) ([]models.Assignment, error) {
	if err := s.requireSection(ctx, sectionID); err != nil {
		return nil, err
	}
	items, err := s.assignments.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return items, nil
}

// UpsertGrade sets a student's score on an assignment, replacing any earlier score.
func (s *GradeService) UpsertGrade(ctx context.Context, req models.UpsertGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if err := academics.ValidateScore(*req.Score); err != nil {
		return nil, err
	}
	if _, err := s.assignments.FindByID(ctx, req.AssignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	grade := &models.Grade{AssignmentID: req.AssignmentID, StudentID: req.StudentID, Score: *req.Score}
	if err := s.grades.Upsert(ctx, grade); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, GPAKey(req.StudentID)); err != nil {
			s.logger.Warn("failed to invalidate gpa cache", zap.Int64("student_id", req.StudentID), zap.Error(err))
		}
	}
	return grade, nil
}

// MySectionGrades returns the caller's grade records within one section.
func (s *GradeService) MySectionGrades(ctx context.Context, userID, sectionID int64) ([]models.GradeRecord, error) {
	student, err := s.students.ResolveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.grades.ListRecordsByStudentSection(ctx, student.ID, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	return records, nil
}

// MyGPA computes the caller's GPA report.
func (s *GradeService) MyGPA(ctx context.Context, userID int64) (*models.GPAReport, bool, error) {
	student, err := s.students.ResolveByUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return s.StudentGPA(ctx, student.ID)
}

// StudentGPA returns the GPA report of a student and whether it was served from cache.
func (s *GradeService) StudentGPA(ctx context.Context, studentID int64) (*models.GPAReport, bool, error) {
	if _, err := s.students.Find(ctx, studentID); err != nil {
		return nil, false, err
	}
	key := GPAKey(studentID)
	if s.cache != nil {
		var cached models.GPAReport
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	records, err := s.grades.ListRecordsByStudent(ctx, studentID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	report := academics.ComputeGPA(studentID, records)
	if s.metrics != nil {
		s.metrics.RecordGPAComputation()
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, report, s.cfg.CacheTTL)
	}
	return &report, false, nil
}

// Transcript returns the per-section finals behind a GPA report alongside the raw records.
func (s *GradeService) Transcript(ctx context.Context, studentID int64) (models.GPAReport, []models.GradeRecord, error) {
	records, err := s.grades.ListRecordsByStudent(ctx, studentID)
	if err != nil {
		return models.GPAReport{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	return academics.ComputeGPA(studentID, records), records, nil
}

func (s *GradeService) requireSection(ctx context.Context, sectionID int64) error {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return nil
}
