package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/biniyam0960/Student-information-System/internal/models"
)

// AssignmentRepository persists graded items.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	const query = `INSERT INTO assignments (section_id, title, max_score, weight) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, a.SectionID, a.Title, a.MaxScore, a.Weight).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// FindByID returns an assignment.
func (r *AssignmentRepository) FindByID(ctx context.Context, id int64) (*models.Assignment, error) {
	var a models.Assignment
	const query = `SELECT id, section_id, title, max_score, weight, created_at FROM assignments WHERE id = $1`
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &a, nil
}

// ListBySection returns a section's assignments in creation order.
func (r *AssignmentRepository) ListBySection(ctx context.Context, sectionID int64) ([]models.Assignment, error) {
	const query = `SELECT id, section_id, title, max_score, weight, created_at FROM assignments WHERE section_id = $1 ORDER BY id`
	assignments := make([]models.Assignment, 0)
	if err := r.db.SelectContext(ctx, &assignments, query, sectionID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}
