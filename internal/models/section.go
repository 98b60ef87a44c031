package models

// Section is a scheduled offering of a course with a seat capacity.
type Section struct {
	ID              int64   `db:"id" json:"id"`
	CourseID        int64   `db:"course_id" json:"course_id"`
	Capacity        int     `db:"capacity" json:"capacity"`
	ScheduleDetails *string `db:"schedule_details" json:"schedule_details,omitempty"`
	TeacherUserID   *int64  `db:"teacher_user_id" json:"teacher_user_id,omitempty"`
}

// SectionDetail adds the course columns shown in section listings.
type SectionDetail struct {
	Section
	CourseTitle string `db:"course_title" json:"course_title"`
	Credits     int    `db:"credits" json:"credits"`
}

// SectionFilter scopes section listings. A nil TeacherUserID returns all sections.
type SectionFilter struct {
	TeacherUserID *int64
}

// CreateSectionRequest payload.
type CreateSectionRequest struct {
	CourseID        int64   `json:"course_id" validate:"required,gt=0"`
	Capacity        int     `json:"capacity" validate:"required,gt=0"`
	ScheduleDetails *string `json:"schedule_details"`
	TeacherUserID   *int64  `json:"teacher_user_id" validate:"omitempty,gt=0"`
}

// UpdateSectionRequest merges the provided fields into the section.
type UpdateSectionRequest struct {
	CourseID        *int64  `json:"course_id" validate:"omitempty,gt=0"`
	Capacity        *int    `json:"capacity" validate:"omitempty,gt=0"`
	ScheduleDetails *string `json:"schedule_details"`
	TeacherUserID   *int64  `json:"teacher_user_id" validate:"omitempty,gt=0"`
}
