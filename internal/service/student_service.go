package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/biniyam0960/Student-information-System/internal/models"
	"github.com/biniyam0960/Student-information-System/internal/repository"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID int64) (*models.StudentDetail, error)
	Create(ctx context.Context, user *models.User, student *models.Student) error
	Update(ctx context.Context, id int64, req models.UpdateStudentRequest) (*models.Student, error)
	Delete(ctx context.Context, id int64) error
}

type gpaEvictor interface {
	Delete(ctx context.Context, keys ...string) error
}

// errNoStudentRecord is returned when a student-scoped call comes from a user without a profile.
var errNoStudentRecord = appErrors.Clone(appErrors.ErrValidation, "student record not found for user")

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	cache     gpaEvictor
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service. cache may be nil.
func NewStudentService(repo studentRepository, cache gpaEvictor, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	if filter.Status != "" {
		switch filter.Status {
		case models.StudentStatusActive, models.StudentStatusInactive, models.StudentStatusGraduated, models.StudentStatusSuspended:
		default:
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
		}
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student profile. Students may only read their own record.
func (s *StudentService) Get(ctx context.Context, id int64, actor Actor) (*models.StudentDetail, error) {
	student, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent && student.UserID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only view their own record")
	}
	return student, nil
}

// Find loads a student profile without any ownership check.
func (s *StudentService) Find(ctx context.Context, id int64) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// ResolveByUser finds the student profile owned by a user account.
func (s *StudentService) ResolveByUser(ctx context.Context, userID int64) (*models.StudentDetail, error) {
	student, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(errNoStudentRecord, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
	}
	return student, nil
}

// Create registers a user account with the student role and its profile.
func (s *StudentService) Create(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	status := req.CurrentStatus
	if status == "" {
		status = models.StudentStatusActive
	}
	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	student := &models.Student{
		StudentNumber: req.StudentNumber,
		DateOfBirth:   req.DateOfBirth,
		Gender:        req.Gender,
		Address:       req.Address,
		CurrentStatus: status,
	}
	if err := s.repo.Create(ctx, user, student); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username, email or student number already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.Int64("student_id", student.ID), zap.Int64("user_id", user.ID))
	return student, nil
}

// Update patches the provided fields of a student profile.
func (s *StudentService) Update(ctx context.Context, id int64, req models.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.Update(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		case repository.IsUniqueViolation(err):
			return nil, appErrors.Clone(appErrors.ErrConflict, "student number already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes the student profile and, by cascade, its enrollments and grades.
// The linked user account is kept.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, GPAKey(id))
	}
	return nil
}
