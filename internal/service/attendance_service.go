package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/biniyam0960/Student-information-System/internal/models"
	"github.com/biniyam0960/Student-information-System/internal/repository"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
)

const dateLayout = "2006-01-02"

type attendanceRepository interface {
	Upsert(ctx context.Context, a *models.Attendance) error
	ListBySectionDate(ctx context.Context, sectionID int64, date string) ([]models.Attendance, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.Attendance, error)
}

// AttendanceService records daily attendance marks per section.
type AttendanceService struct {
	repo      attendanceRepository
	sections  sectionReader
	students  studentResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, sections sectionReader, students studentResolver, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{repo: repo, sections: sections, students: students, validator: validate, logger: logger}
	_ = svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToLower(fl.Field().String())).Valid()
	})
	return svc
}

// Mark records a status for (section, student, date). Marking the same day again replaces it.
func (s *AttendanceService) Mark(ctx context.Context, req models.MarkAttendanceRequest) (*models.Attendance, error) {
	req.Status = models.AttendanceStatus(strings.ToLower(string(req.Status)))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if _, err := s.sections.FindByID(ctx, req.SectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	record := &models.Attendance{
		SectionID: req.SectionID,
		StudentID: req.StudentID,
		Date:      req.Date,
		Status:    req.Status,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}
	return record, nil
}

// ListBySectionDate returns the marks of one section on one day. The date is required.
func (s *AttendanceService) ListBySectionDate(ctx context.Context, sectionID int64, date string) ([]models.Attendance, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required")
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}
	items, err := s.repo.ListBySectionDate(ctx, sectionID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return items, nil
}

// ListMine returns the caller's marks, newest first.
func (s *AttendanceService) ListMine(ctx context.Context, userID int64) ([]models.Attendance, error) {
	student, err := s.students.ResolveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return items, nil
}
