package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/biniyam0960/Student-information-System/internal/models"
)

const sectionColumns = `id, course_id, capacity, schedule_details, teacher_user_id`

// SectionRepository persists course sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// List returns sections joined with their course, scoped to a teacher when requested.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error) {
	query := `SELECT s.id, s.course_id, s.capacity, s.schedule_details, s.teacher_user_id,
        c.title AS course_title, c.credits
        FROM sections s JOIN courses c ON c.id = s.course_id`
	var args []interface{}
	if filter.TeacherUserID != nil {
		query += " WHERE s.teacher_user_id = $1"
		args = append(args, *filter.TeacherUserID)
	}
	query += " ORDER BY s.id"

	sections := make([]models.SectionDetail, 0)
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// FindByID returns a section.
func (r *SectionRepository) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	var section models.Section
	if err := r.db.GetContext(ctx, &section, `SELECT `+sectionColumns+` FROM sections WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find section: %w", err)
	}
	return &section, nil
}

// Create inserts a section.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	const query = `INSERT INTO sections (course_id, capacity, schedule_details, teacher_user_id) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.GetContext(ctx, &section.ID, query, section.CourseID, section.Capacity, section.ScheduleDetails, section.TeacherUserID); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// Update merges the provided fields.
func (r *SectionRepository) Update(ctx context.Context, id int64, req models.UpdateSectionRequest) (*models.Section, error) {
	query := `UPDATE sections SET
        course_id        = COALESCE($2, course_id),
        capacity         = COALESCE($3, capacity),
        schedule_details = COALESCE($4, schedule_details),
        teacher_user_id  = COALESCE($5, teacher_user_id)
        WHERE id = $1 RETURNING ` + sectionColumns
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id, req.CourseID, req.Capacity, req.ScheduleDetails, req.TeacherUserID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update section: %w", err)
	}
	return &section, nil
}

// Delete removes a section.
func (r *SectionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return requireAffected(res)
}
