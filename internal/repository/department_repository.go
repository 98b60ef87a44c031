package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/biniyam0960/Student-information-System/internal/models"
)

// DepartmentRepository persists departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns departments ordered by name.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	departments := make([]models.Department, 0)
	if err := r.db.SelectContext(ctx, &departments, `SELECT id, code, name FROM departments ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindByID returns a department.
func (r *DepartmentRepository) FindByID(ctx context.Context, id int64) (*models.Department, error) {
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, `SELECT id, code, name FROM departments WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find department: %w", err)
	}
	return &dept, nil
}

// Create inserts a department.
func (r *DepartmentRepository) Create(ctx context.Context, dept *models.Department) error {
	const query = `INSERT INTO departments (code, name) VALUES ($1, $2) RETURNING id`
	if err := r.db.GetContext(ctx, &dept.ID, query, dept.Code, dept.Name); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update merges the provided fields.
func (r *DepartmentRepository) Update(ctx context.Context, id int64, req models.UpdateDepartmentRequest) (*models.Department, error) {
	const query = `UPDATE departments SET code = COALESCE($2, code), name = COALESCE($3, name) WHERE id = $1 RETURNING id, code, name`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query, id, req.Code, req.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update department: %w", err)
	}
	return &dept, nil
}

// Delete removes a department.
func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return requireAffected(res)
}
