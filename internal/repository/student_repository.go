package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/biniyam0960/Student-information-System/internal/models"
)

const studentDetailSelect = `SELECT s.id, s.user_id, s.student_number, to_char(s.date_of_birth, 'YYYY-MM-DD') AS date_of_birth,
        s.gender, s.address, s.current_status, s.created_at, s.updated_at,
        u.username, u.email, u.first_name, u.last_name
        FROM students s JOIN users u ON u.id = s.user_id`

const studentReturning = `RETURNING id, user_id, student_number, to_char(date_of_birth, 'YYYY-MM-DD') AS date_of_birth,
        gender, address, current_status, created_at, updated_at`

// StudentRepository manages student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students ordered by name, optionally filtered by status.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND s.current_status = $%d", len(args))
	}
	_, size, offset := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s%s ORDER BY u.last_name, u.first_name, s.id LIMIT %d OFFSET %d", studentDetailSelect, where, size, offset)
	students := make([]models.StudentDetail, 0)
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students s"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student with user fields.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, studentDetailSelect+" WHERE s.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// FindByUserID resolves the student record behind a user account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID int64) (*models.StudentDetail, error) {
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, studentDetailSelect+" WHERE s.user_id = $1", userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by user: %w", err)
	}
	return &student, nil
}

// Create inserts the user account and the student profile in one transaction.
func (r *StudentRepository) Create(ctx context.Context, user *models.User, student *models.Student) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertUser(ctx, tx, user); err != nil {
		return err
	}
	student.UserID = user.ID
	if student.CurrentStatus == "" {
		student.CurrentStatus = models.StudentStatusActive
	}
	query := `INSERT INTO students (user_id, student_number, date_of_birth, gender, address, current_status)
        VALUES ($1, $2, $3, $4, $5, $6) ` + studentReturning
	if err = tx.GetContext(ctx, student, query, student.UserID, student.StudentNumber, student.DateOfBirth,
		student.Gender, student.Address, student.CurrentStatus); err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create student: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of req. Missing rows yield sql.ErrNoRows.
func (r *StudentRepository) Update(ctx context.Context, id int64, req models.UpdateStudentRequest) (*models.Student, error) {
	query := `UPDATE students SET
        student_number = COALESCE($2, student_number),
        date_of_birth  = COALESCE($3::date, date_of_birth),
        gender         = COALESCE($4, gender),
        address        = COALESCE($5, address),
        current_status = COALESCE($6, current_status),
        updated_at     = NOW()
        WHERE id = $1 ` + studentReturning
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id, req.StudentNumber, req.DateOfBirth, req.Gender, req.Address, req.CurrentStatus); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update student: %w", err)
	}
	return &student, nil
}

// Delete removes the student profile. Missing rows yield sql.ErrNoRows.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
