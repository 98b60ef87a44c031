package models

// Department groups teachers.
type Department struct {
	ID   int64  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// CreateDepartmentRequest payload.
type CreateDepartmentRequest struct {
	Code string `json:"code" validate:"required,max=20"`
	Name string `json:"name" validate:"required,max=150"`
}

// UpdateDepartmentRequest payload; nil fields are left unchanged.
type UpdateDepartmentRequest struct {
	Code *string `json:"code" validate:"omitempty,min=1,max=20"`
	Name *string `json:"name" validate:"omitempty,min=1,max=150"`
}
