package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusEnrolled   EnrollmentStatus = "enrolled"
	EnrollmentStatusWaitlisted EnrollmentStatus = "waitlisted"
	EnrollmentStatusDropped    EnrollmentStatus = "dropped"
)

// Enrollment captures a student's seat, or place in line, for a section.
type Enrollment struct {
	ID         int64            `db:"id" json:"id"`
	StudentID  int64            `db:"student_id" json:"student_id"`
	SectionID  int64            `db:"section_id" json:"section_id"`
	Status     EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt time.Time        `db:"enrolled_at" json:"enrolled_at"`
}

// StudentEnrollment is the student view, joined with section and course identifiers.
type StudentEnrollment struct {
	Enrollment
	CourseID    int64  `db:"course_id" json:"course_id"`
	CourseTitle string `db:"course_title" json:"course_title"`
}

// SectionEnrollment is the roster view, joined with student identity.
type SectionEnrollment struct {
	Enrollment
	StudentNumber string `db:"student_number" json:"student_number"`
	FirstName     string `db:"first_name" json:"first_name"`
	LastName      string `db:"last_name" json:"last_name"`
	Email         string `db:"email" json:"email"`
}

// EnrollRequest asks for a seat in a section.
type EnrollRequest struct {
	SectionID int64 `json:"section_id" validate:"required,gt=0"`
}

// DropRequest releases a seat or waitlist place.
type DropRequest struct {
	SectionID int64 `json:"section_id" validate:"required,gt=0"`
}

// DropResult reports the dropped row and any waitlisted row promoted into the freed seat.
// Changed is false when the row was already dropped.
type DropResult struct {
	Enrollment Enrollment  `json:"enrollment"`
	Promoted   *Enrollment `json:"promoted,omitempty"`
	Changed    bool        `json:"-"`
}
