package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/biniyam0960/Student-information-System/internal/models"
	"github.com/biniyam0960/Student-information-System/internal/repository"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
)

type sectionRepository interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error)
	FindByID(ctx context.Context, id int64) (*models.Section, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, id int64, req models.UpdateSectionRequest) (*models.Section, error)
	Delete(ctx context.Context, id int64) error
}

// cacheInvalidator drops cached GPA reports when deletes cascade into grades.
type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// SectionService manages scheduled course sections.
type SectionService struct {
	repo      sectionRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs a SectionService. cache may be nil.
func NewSectionService(repo sectionRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns sections visible to the actor. Teachers only see the sections they teach.
func (s *SectionService) List(ctx context.Context, actor Actor) ([]models.SectionDetail, error) {
	var filter models.SectionFilter
	if actor.Role == models.RoleTeacher {
		teacherID := actor.UserID
		filter.TeacherUserID = &teacherID
	}
	sections, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// Get returns one section.
func (s *SectionService) Get(ctx context.Context, id int64) (*models.Section, error) {
	section, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// Create adds a section for an existing course.
func (s *SectionService) Create(ctx context.Context, req models.CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	section := &models.Section{
		CourseID:        req.CourseID,
		Capacity:        req.Capacity,
		ScheduleDetails: req.ScheduleDetails,
		TeacherUserID:   req.TeacherUserID,
	}
	if err := s.repo.Create(ctx, section); err != nil {
		return nil, sectionWriteError(err, "failed to create section")
	}
	return section, nil
}

// Update merges the provided fields into a section.
func (s *SectionService) Update(ctx context.Context, id int64, req models.UpdateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	section, err := s.repo.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, sectionWriteError(err, "failed to update section")
	}
	return section, nil
}

// Delete removes a section.
func (s *SectionService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}
	dropGPACache(ctx, s.cache)
	return nil
}

// dropGPACache clears GPA reports after a delete removed grades. Failures are logged by the cache.
func dropGPACache(ctx context.Context, cache cacheInvalidator) {
	if cache != nil {
		_ = cache.Invalidate(ctx, GPAKeyPattern)
	}
}

func sectionWriteError(err error, message string) error {
	if repository.IsForeignKeyViolation(err) {
		return appErrors.Clone(appErrors.ErrValidation, "course or teacher does not exist")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
