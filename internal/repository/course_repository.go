package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/biniyam0960/Student-information-System/internal/models"
)

// CourseRepository persists the course catalogue.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses ordered by title.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	courses := make([]models.Course, 0)
	if err := r.db.SelectContext(ctx, &courses, `SELECT id, title, credits FROM courses ORDER BY title, id`); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a course.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, `SELECT id, title, credits FROM courses WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	const query = `INSERT INTO courses (title, credits) VALUES ($1, $2) RETURNING id`
	if err := r.db.GetContext(ctx, &course.ID, query, course.Title, course.Credits); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update merges the provided fields.
func (r *CourseRepository) Update(ctx context.Context, id int64, req models.UpdateCourseRequest) (*models.Course, error) {
	const query = `UPDATE courses SET title = COALESCE($2, title), credits = COALESCE($3, credits) WHERE id = $1 RETURNING id, title, credits`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id, req.Title, req.Credits); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update course: %w", err)
	}
	return &course, nil
}

// Delete removes a course and, by cascade, its sections.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return requireAffected(res)
}
