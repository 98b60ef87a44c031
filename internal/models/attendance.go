package models

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate:
		return true
	default:
		return false
	}
}

// Attendance is one mark for (section, student, date). Date is YYYY-MM-DD.
type Attendance struct {
	ID        int64            `db:"id" json:"id"`
	SectionID int64            `db:"section_id" json:"section_id"`
	StudentID int64            `db:"student_id" json:"student_id"`
	Date      string           `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
}

// MarkAttendanceRequest upserts a mark.
type MarkAttendanceRequest struct {
	SectionID int64            `json:"section_id" validate:"required,gt=0"`
	StudentID int64            `json:"student_id" validate:"required,gt=0"`
	Date      string           `json:"date" validate:"required,datetime=2006-01-02"`
	Status    AttendanceStatus `json:"status" validate:"required,attendance_status"`
}
