package models

import "time"

// Teacher represents an instructor profile linked to a user account.
type Teacher struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	EmployeeNumber string    `db:"employee_number" json:"employee_number"`
	DepartmentID   *int64    `db:"department_id" json:"department_id,omitempty"`
	HireDate       *string   `db:"hire_date" json:"hire_date,omitempty"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherDetail joins the profile with user and department fields.
type TeacherDetail struct {
	Teacher
	Username       string  `db:"username" json:"username"`
	Email          string  `db:"email" json:"email"`
	FirstName      string  `db:"first_name" json:"first_name"`
	LastName       string  `db:"last_name" json:"last_name"`
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
}

// CreateTeacherRequest creates a teacher account and profile together.
type CreateTeacherRequest struct {
	Username       string  `json:"username" validate:"required,min=3,max=50"`
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=6"`
	FirstName      string  `json:"first_name" validate:"required,max=100"`
	LastName       string  `json:"last_name" validate:"required,max=100"`
	EmployeeNumber string  `json:"employee_number" validate:"required,max=50"`
	DepartmentID   *int64  `json:"department_id" validate:"omitempty,gt=0"`
	HireDate       *string `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
	Phone          *string `json:"phone" validate:"omitempty,max=30"`
}

// UpdateTeacherRequest patches a teacher profile; nil fields are left unchanged.
type UpdateTeacherRequest struct {
	EmployeeNumber *string `json:"employee_number" validate:"omitempty,min=1,max=50"`
	DepartmentID   *int64  `json:"department_id" validate:"omitempty,gt=0"`
	HireDate       *string `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
	Phone          *string `json:"phone" validate:"omitempty,max=30"`
}
