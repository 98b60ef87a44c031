// Package memory is an in-process implementation of the enrollment and grading storage used by
// tests and local runs without Postgres. Admission and drop are serialised per section.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/biniyam0960/Student-information-System/internal/academics"
	"github.com/biniyam0960/Student-information-System/internal/models"
)

// Store holds sections, enrollments, assignments and grades in maps.
type Store struct {
	mu           sync.RWMutex
	sectionLocks map[int64]*sync.Mutex

	courses     map[int64]models.Course
	sections    map[int64]models.Section
	students    map[int64]models.StudentDetail
	enrollments []models.Enrollment
	assignments map[int64]models.Assignment
	grades      map[gradeKey]models.Grade

	nextEnrollmentID int64
	nextAssignmentID int64
	nextGradeID      int64

	now func() time.Time
}

type gradeKey struct {
	assignmentID int64
	studentID    int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		sectionLocks: make(map[int64]*sync.Mutex),
		courses:      make(map[int64]models.Course),
		sections:     make(map[int64]models.Section),
		students:     make(map[int64]models.StudentDetail),
		assignments:  make(map[int64]models.Assignment),
		grades:       make(map[gradeKey]models.Grade),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// PutCourse adds or replaces a course.
func (s *Store) PutCourse(c models.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.ID] = c
}

// PutSection adds or replaces a section.
func (s *Store) PutSection(sec models.Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[sec.ID] = sec
}

// PutStudent adds or replaces a student profile.
func (s *Store) PutStudent(st models.StudentDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[st.ID] = st
}

func (s *Store) sectionLock(sectionID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.sectionLocks[sectionID]
	if !ok {
		l = &sync.Mutex{}
		s.sectionLocks[sectionID] = l
	}
	return l
}

func (s *Store) section(sectionID int64) *models.Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.sections[sectionID]
	if !ok {
		return nil
	}
	return &sec
}

// countEnrolled and the scans below run under the section lock; the read lock guards the slice.
func (s *Store) countEnrolled(sectionID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.enrollments {
		if e.SectionID == sectionID && e.Status == models.EnrollmentStatusEnrolled {
			n++
		}
	}
	return n
}

// latest returns the index of the student's most recent row in the section, preferring live rows.
func (s *Store) latest(studentID, sectionID int64, liveOnly bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	best := -1
	for i, e := range s.enrollments {
		if e.StudentID != studentID || e.SectionID != sectionID {
			continue
		}
		if liveOnly && e.Status == models.EnrollmentStatusDropped {
			continue
		}
		if best == -1 || newer(e, s.enrollments[best]) {
			best = i
		}
	}
	return best
}

func newer(a, b models.Enrollment) bool {
	aLive := a.Status != models.EnrollmentStatusDropped
	bLive := b.Status != models.EnrollmentStatusDropped
	if aLive != bLive {
		return aLive
	}
	if !a.EnrolledAt.Equal(b.EnrolledAt) {
		return a.EnrolledAt.After(b.EnrolledAt)
	}
	return a.ID > b.ID
}

// Admit creates an enrollment whose status is chosen by decide.
func (s *Store) Admit(_ context.Context, studentID, sectionID int64, decide academics.AdmissionFunc) (*models.Enrollment, error) {
	lock := s.sectionLock(sectionID)
	lock.Lock()
	defer lock.Unlock()

	section := s.section(sectionID)
	var current *models.Enrollment
	count := 0
	if section != nil {
		if idx := s.latest(studentID, sectionID, true); idx >= 0 {
			s.mu.RLock()
			row := s.enrollments[idx]
			s.mu.RUnlock()
			current = &row
		}
		count = s.countEnrolled(sectionID)
	}

	status, err := decide(section, current, count)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEnrollmentID++
	created := models.Enrollment{
		ID:         s.nextEnrollmentID,
		StudentID:  studentID,
		SectionID:  sectionID,
		Status:     status,
		EnrolledAt: s.now(),
	}
	s.enrollments = append(s.enrollments, created)
	return &created, nil
}

// Drop mirrors the SQL repository: idempotent for dropped rows, FIFO promotion when enabled.
func (s *Store) Drop(_ context.Context, studentID, sectionID int64, promote bool) (*models.DropResult, error) {
	lock := s.sectionLock(sectionID)
	lock.Lock()
	defer lock.Unlock()

	section := s.section(sectionID)
	var target *models.Enrollment
	idx := -1
	if section != nil {
		if idx = s.latest(studentID, sectionID, false); idx >= 0 {
			s.mu.RLock()
			row := s.enrollments[idx]
			s.mu.RUnlock()
			target = &row
		}
	}

	changed, err := academics.CheckDrop(target)
	if err != nil {
		return nil, err
	}
	result := &models.DropResult{Enrollment: *target, Changed: changed}
	if !changed {
		return result, nil
	}

	previous := target.Status
	s.mu.Lock()
	s.enrollments[idx].Status = models.EnrollmentStatusDropped
	s.mu.Unlock()
	result.Enrollment.Status = models.EnrollmentStatusDropped

	if promote && academics.ShouldPromote(previous, section, s.countEnrolled(sectionID)) {
		s.mu.Lock()
		defer s.mu.Unlock()
		var waiting []models.Enrollment
		for _, e := range s.enrollments {
			if e.SectionID == sectionID {
				waiting = append(waiting, e)
			}
		}
		if next := academics.NextInWaitlist(waiting); next != nil {
			for i := range s.enrollments {
				if s.enrollments[i].ID == next.ID {
					s.enrollments[i].Status = models.EnrollmentStatusEnrolled
					promoted := s.enrollments[i]
					result.Promoted = &promoted
					break
				}
			}
		}
	}
	return result, nil
}

// ListByStudent returns the student's rows, newest first, with course identifiers when known.
func (s *Store) ListByStudent(_ context.Context, studentID int64) ([]models.StudentEnrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]models.StudentEnrollment, 0)
	for _, e := range s.enrollments {
		if e.StudentID != studentID {
			continue
		}
		row := models.StudentEnrollment{Enrollment: e}
		if sec, ok := s.sections[e.SectionID]; ok {
			row.CourseID = sec.CourseID
			row.CourseTitle = s.courses[sec.CourseID].Title
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].EnrolledAt.Equal(rows[j].EnrolledAt) {
			return rows[i].EnrolledAt.After(rows[j].EnrolledAt)
		}
		return rows[i].ID > rows[j].ID
	})
	return rows, nil
}

// ListBySection returns the section's rows in admission order.
func (s *Store) ListBySection(_ context.Context, sectionID int64) ([]models.SectionEnrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]models.SectionEnrollment, 0)
	for _, e := range s.enrollments {
		if e.SectionID != sectionID {
			continue
		}
		row := models.SectionEnrollment{Enrollment: e}
		if st, ok := s.students[e.StudentID]; ok {
			row.StudentNumber = st.StudentNumber
			row.FirstName = st.FirstName
			row.LastName = st.LastName
			row.Email = st.Email
		}
		rows = append(rows, row)
	}
	return rows, nil
}
