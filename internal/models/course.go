package models

// Course is a catalogue entry offered through sections.
type Course struct {
	ID      int64  `db:"id" json:"id"`
	Title   string `db:"title" json:"title"`
	Credits int    `db:"credits" json:"credits"`
}

// CreateCourseRequest payload.
type CreateCourseRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Credits int    `json:"credits" validate:"required,gt=0"`
}

// UpdateCourseRequest merges the provided fields into the course.
type UpdateCourseRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=200"`
	Credits *int    `json:"credits" validate:"omitempty,gt=0"`
}
