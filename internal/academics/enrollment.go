// Package academics holds the enrollment decision and grade aggregation rules.
// Everything here is a pure function over plain data; storage and locking belong to callers.
package academics

import (
	"sort"

	"github.com/biniyam0960/Student-information-System/internal/models"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
)

// AdmissionFunc decides the initial status of a new enrollment. Repositories call it while
// holding the section lock so the count it sees cannot change before the insert.
type AdmissionFunc func(section *models.Section, current *models.Enrollment, enrolledCount int) (models.EnrollmentStatus, error)

// Admit decides whether a request becomes enrolled or waitlisted.
//
// current is the student's live (non-dropped) enrollment in the section, if any. Dropped
// history rows never block a new request.
func Admit(section *models.Section, current *models.Enrollment, enrolledCount int) (models.EnrollmentStatus, error) {
	if section == nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	if current != nil {
		switch current.Status {
		case models.EnrollmentStatusEnrolled:
			return "", appErrors.ErrAlreadyEnrolled
		case models.EnrollmentStatusWaitlisted:
			return "", appErrors.ErrAlreadyWaitlisted
		}
	}
	if section.Capacity <= 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "section capacity must be positive")
	}
	if enrolledCount < 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "enrolled count cannot be negative")
	}
	if enrolledCount < section.Capacity {
		return models.EnrollmentStatusEnrolled, nil
	}
	return models.EnrollmentStatusWaitlisted, nil
}

var _ AdmissionFunc = Admit

// CheckDrop validates a drop target and reports whether the row actually changes.
// A row that is already dropped is returned as-is.
func CheckDrop(existing *models.Enrollment) (changed bool, err error) {
	if existing == nil {
		return false, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return existing.Status != models.EnrollmentStatusDropped, nil
}

// SeatAvailable reports whether one more student fits.
func SeatAvailable(section *models.Section, enrolledCount int) bool {
	return section != nil && enrolledCount < section.Capacity
}

// ShouldPromote reports whether dropping a row with the given previous status frees a seat
// that a waitlisted student may take.
func ShouldPromote(previous models.EnrollmentStatus, section *models.Section, enrolledCount int) bool {
	return previous == models.EnrollmentStatusEnrolled && SeatAvailable(section, enrolledCount)
}

// NextInWaitlist picks the earliest waitlisted enrollment, ties broken by lowest id.
func NextInWaitlist(rows []models.Enrollment) *models.Enrollment {
	waiting := make([]models.Enrollment, 0, len(rows))
	for _, row := range rows {
		if row.Status == models.EnrollmentStatusWaitlisted {
			waiting = append(waiting, row)
		}
	}
	if len(waiting) == 0 {
		return nil
	}
	sort.SliceStable(waiting, func(i, j int) bool {
		if !waiting[i].EnrolledAt.Equal(waiting[j].EnrolledAt) {
			return waiting[i].EnrolledAt.Before(waiting[j].EnrolledAt)
		}
		return waiting[i].ID < waiting[j].ID
	})
	next := waiting[0]
	return &next
}
