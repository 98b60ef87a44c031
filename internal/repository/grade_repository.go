package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/biniyam0960/Student-information-System/internal/models"
)

const gradeRecordSelect = `SELECT g.assignment_id, a.section_id, a.title, g.score, a.max_score, a.weight
        FROM grades g JOIN assignments a ON a.id = g.assignment_id`

// GradeRepository persists scores. A score is unique per (assignment, student).
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new repository instance.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Upsert inserts the score or replaces the existing one for the same assignment and student.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	const query = `INSERT INTO grades (assignment_id, student_id, score) VALUES ($1, $2, $3)
        ON CONFLICT (assignment_id, student_id)
        DO UPDATE SET score = EXCLUDED.score, graded_at = NOW()
        RETURNING id, graded_at`
	if err := r.db.QueryRowxContext(ctx, query, grade.AssignmentID, grade.StudentID, grade.Score).Scan(&grade.ID, &grade.GradedAt); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

// ListRecordsByStudent returns every score of a student with assignment max score and weight.
func (r *GradeRepository) ListRecordsByStudent(ctx context.Context, studentID int64) ([]models.GradeRecord, error) {
	records := make([]models.GradeRecord, 0)
	query := gradeRecordSelect + ` WHERE g.student_id = $1 ORDER BY a.section_id, g.assignment_id`
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return records, nil
}

// ListRecordsByStudentSection narrows ListRecordsByStudent to one section.
func (r *GradeRepository) ListRecordsByStudentSection(ctx context.Context, studentID, sectionID int64) ([]models.GradeRecord, error) {
	records := make([]models.GradeRecord, 0)
	query := gradeRecordSelect + ` WHERE g.student_id = $1 AND a.section_id = $2 ORDER BY g.assignment_id`
	if err := r.db.SelectContext(ctx, &records, query, studentID, sectionID); err != nil {
		return nil, fmt.Errorf("list section grades: %w", err)
	}
	return records, nil
}
