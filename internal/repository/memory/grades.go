package memory

import (
	"context"
	"database/sql"
	"sort"

	"github.com/biniyam0960/Student-information-System/internal/models"
)

// SectionStore exposes section lookups.
type SectionStore struct{ s *Store }

// Sections returns the section view of the store.
func (s *Store) Sections() *SectionStore { return &SectionStore{s: s} }

// FindByID returns sql.ErrNoRows for unknown sections, like the SQL repository.
func (v *SectionStore) FindByID(_ context.Context, id int64) (*models.Section, error) {
	if sec := v.s.section(id); sec != nil {
		return sec, nil
	}
	return nil, sql.ErrNoRows
}

// AssignmentStore exposes assignment persistence.
type AssignmentStore struct{ s *Store }

// Assignments returns the assignment view of the store.
func (s *Store) Assignments() *AssignmentStore { return &AssignmentStore{s: s} }

// Create assigns an id and stores the assignment.
func (v *AssignmentStore) Create(_ context.Context, a *models.Assignment) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.nextAssignmentID++
	a.ID = v.s.nextAssignmentID
	a.CreatedAt = v.s.now()
	v.s.assignments[a.ID] = *a
	return nil
}

// FindByID returns sql.ErrNoRows for unknown assignments.
func (v *AssignmentStore) FindByID(_ context.Context, id int64) (*models.Assignment, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	a, ok := v.s.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

// ListBySection returns assignments ordered by id.
func (v *AssignmentStore) ListBySection(_ context.Context, sectionID int64) ([]models.Assignment, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]models.Assignment, 0)
	for _, a := range v.s.assignments {
		if a.SectionID == sectionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GradeStore exposes grade persistence keyed by (assignment, student).
type GradeStore struct{ s *Store }

// Grades returns the grade view of the store.
func (s *Store) Grades() *GradeStore { return &GradeStore{s: s} }

// Upsert replaces any existing score for the same assignment and student, keeping its id.
func (v *GradeStore) Upsert(_ context.Context, g *models.Grade) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	key := gradeKey{assignmentID: g.AssignmentID, studentID: g.StudentID}
	if existing, ok := v.s.grades[key]; ok {
		g.ID = existing.ID
	} else {
		v.s.nextGradeID++
		g.ID = v.s.nextGradeID
	}
	g.GradedAt = v.s.now()
	v.s.grades[key] = *g
	return nil
}

// ListRecordsByStudent joins the student's grades with their assignments.
func (v *GradeStore) ListRecordsByStudent(_ context.Context, studentID int64) ([]models.GradeRecord, error) {
	return v.records(func(g models.Grade, a models.Assignment) bool { return g.StudentID == studentID }), nil
}

// ListRecordsByStudentSection narrows ListRecordsByStudent to one section.
func (v *GradeStore) ListRecordsByStudentSection(_ context.Context, studentID, sectionID int64) ([]models.GradeRecord, error) {
	return v.records(func(g models.Grade, a models.Assignment) bool {
		return g.StudentID == studentID && a.SectionID == sectionID
	}), nil
}

func (v *GradeStore) records(keep func(models.Grade, models.Assignment) bool) []models.GradeRecord {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]models.GradeRecord, 0)
	for _, g := range v.s.grades {
		a, ok := v.s.assignments[g.AssignmentID]
		if !ok || !keep(g, a) {
			continue
		}
		out = append(out, models.GradeRecord{
			AssignmentID: g.AssignmentID,
			SectionID:    a.SectionID,
			Title:        a.Title,
			Score:        g.Score,
			MaxScore:     a.MaxScore,
			Weight:       a.Weight,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SectionID != out[j].SectionID {
			return out[i].SectionID < out[j].SectionID
		}
		return out[i].AssignmentID < out[j].AssignmentID
	})
	return out
}
