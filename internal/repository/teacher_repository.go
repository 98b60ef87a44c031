package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/biniyam0960/Student-information-System/internal/models"
)

const teacherDetailSelect = `SELECT t.id, t.user_id, t.employee_number, t.department_id, to_char(t.hire_date, 'YYYY-MM-DD') AS hire_date,
        t.phone, t.created_at, t.updated_at,
        u.username, u.email, u.first_name, u.last_name, d.name AS department_name
        FROM teachers t
        JOIN users u ON u.id = t.user_id
        LEFT JOIN departments d ON d.id = t.department_id`

const teacherReturning = `RETURNING id, user_id, employee_number, department_id, to_char(hire_date, 'YYYY-MM-DD') AS hire_date,
        phone, created_at, updated_at`

// TeacherRepository manages teacher profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns all teachers ordered by name.
func (r *TeacherRepository) List(ctx context.Context) ([]models.TeacherDetail, error) {
	teachers := make([]models.TeacherDetail, 0)
	if err := r.db.SelectContext(ctx, &teachers, teacherDetailSelect+" ORDER BY u.last_name, u.first_name, t.id"); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID returns a teacher with user and department fields.
func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (*models.TeacherDetail, error) {
	var teacher models.TeacherDetail
	if err := r.db.GetContext(ctx, &teacher, teacherDetailSelect+" WHERE t.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	return &teacher, nil
}

// Create inserts the user account and teacher profile in one transaction.
func (r *TeacherRepository) Create(ctx context.Context, user *models.User, teacher *models.Teacher) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create teacher: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertUser(ctx, tx, user); err != nil {
		return err
	}
	teacher.UserID = user.ID
	query := `INSERT INTO teachers (user_id, employee_number, department_id, hire_date, phone)
        VALUES ($1, $2, $3, $4, $5) ` + teacherReturning
	if err = tx.GetContext(ctx, teacher, query, teacher.UserID, teacher.EmployeeNumber, teacher.DepartmentID, teacher.HireDate, teacher.Phone); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create teacher: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of req.
func (r *TeacherRepository) Update(ctx context.Context, id int64, req models.UpdateTeacherRequest) (*models.Teacher, error) {
	query := `UPDATE teachers SET
        employee_number = COALESCE($2, employee_number),
        department_id   = COALESCE($3, department_id),
        hire_date       = COALESCE($4::date, hire_date),
        phone           = COALESCE($5, phone),
        updated_at      = NOW()
        WHERE id = $1 ` + teacherReturning
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id, req.EmployeeNumber, req.DepartmentID, req.HireDate, req.Phone); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update teacher: %w", err)
	}
	return &teacher, nil
}

// Delete removes the teacher profile.
func (r *TeacherRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return requireAffected(res)
}
