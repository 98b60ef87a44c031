package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/biniyam0960/Student-information-System/internal/models"
)

const attendanceSelect = `SELECT id, section_id, student_id, to_char(date, 'YYYY-MM-DD') AS date, status FROM attendance`

// AttendanceRepository persists attendance marks keyed by (section, student, date).
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert records the mark, replacing the status of an existing mark for the same day.
func (r *AttendanceRepository) Upsert(ctx context.Context, a *models.Attendance) error {
	const query = `INSERT INTO attendance (section_id, student_id, date, status) VALUES ($1, $2, $3::date, $4)
        ON CONFLICT (section_id, student_id, date)
        DO UPDATE SET status = EXCLUDED.status
        RETURNING id`
	if err := r.db.GetContext(ctx, &a.ID, query, a.SectionID, a.StudentID, a.Date, a.Status); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// ListBySectionDate returns the marks of a section for one day.
func (r *AttendanceRepository) ListBySectionDate(ctx context.Context, sectionID int64, date string) ([]models.Attendance, error) {
	rows := make([]models.Attendance, 0)
	query := attendanceSelect + ` WHERE section_id = $1 AND date = $2::date ORDER BY student_id`
	if err := r.db.SelectContext(ctx, &rows, query, sectionID, date); err != nil {
		return nil, fmt.Errorf("list section attendance: %w", err)
	}
	return rows, nil
}

// ListByStudent returns a student's marks, newest first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Attendance, error) {
	rows := make([]models.Attendance, 0)
	query := attendanceSelect + ` WHERE student_id = $1 ORDER BY date DESC, section_id`
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return rows, nil
}
