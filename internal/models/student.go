package models

import "time"

// StudentStatus is the enrolment standing of a student.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusInactive  StudentStatus = "inactive"
	StudentStatusGraduated StudentStatus = "graduated"
	StudentStatusSuspended StudentStatus = "suspended"
)

// Student represents a learner profile linked to a user account.
type Student struct {
	ID            int64         `db:"id" json:"id"`
	UserID        int64         `db:"user_id" json:"user_id"`
	StudentNumber string        `db:"student_number" json:"student_number"`
	DateOfBirth   *string       `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender        *string       `db:"gender" json:"gender,omitempty"`
	Address       *string       `db:"address" json:"address,omitempty"`
	CurrentStatus StudentStatus `db:"current_status" json:"current_status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentDetail joins the profile with its user fields.
type StudentDetail struct {
	Student
	Username  string `db:"username" json:"username"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Status   StudentStatus
	Page     int
	PageSize int
}

// CreateStudentRequest creates a user account and a student profile together.
type CreateStudentRequest struct {
	Username      string        `json:"username" validate:"required,min=3,max=50"`
	Email         string        `json:"email" validate:"required,email"`
	Password      string        `json:"password" validate:"required,min=6"`
	FirstName     string        `json:"first_name" validate:"required,max=100"`
	LastName      string        `json:"last_name" validate:"required,max=100"`
	StudentNumber string        `json:"student_number" validate:"required,max=50"`
	DateOfBirth   *string       `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender        *string       `json:"gender" validate:"omitempty,oneof=male female other"`
	Address       *string       `json:"address"`
	CurrentStatus StudentStatus `json:"current_status" validate:"omitempty,oneof=active inactive graduated suspended"`
}

// UpdateStudentRequest patches a student profile; nil fields are left unchanged.
type UpdateStudentRequest struct {
	StudentNumber *string        `json:"student_number" validate:"omitempty,min=1,max=50"`
	DateOfBirth   *string        `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender        *string        `json:"gender" validate:"omitempty,oneof=male female other"`
	Address       *string        `json:"address"`
	CurrentStatus *StudentStatus `json:"current_status" validate:"omitempty,oneof=active inactive graduated suspended"`
}
