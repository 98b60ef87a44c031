package models

import "time"

// Assignment is a graded item within a section.
type Assignment struct {
	ID        int64     `db:"id" json:"id"`
	SectionID int64     `db:"section_id" json:"section_id"`
	Title     string    `db:"title" json:"title"`
	MaxScore  float64   `db:"max_score" json:"max_score"`
	Weight    float64   `db:"weight" json:"weight"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreateAssignmentRequest payload.
type CreateAssignmentRequest struct {
	SectionID int64   `json:"section_id" validate:"required,gt=0"`
	Title     string  `json:"title" validate:"required,max=200"`
	MaxScore  float64 `json:"max_score" validate:"required,gt=0"`
	Weight    float64 `json:"weight" validate:"required,gt=0"`
}

// Grade is a student's score on one assignment.
type Grade struct {
	ID           int64     `db:"id" json:"id"`
	AssignmentID int64     `db:"assignment_id" json:"assignment_id"`
	StudentID    int64     `db:"student_id" json:"student_id"`
	Score        float64   `db:"score" json:"score"`
	GradedAt     time.Time `db:"graded_at" json:"graded_at"`
}

// UpsertGradeRequest sets the score for (assignment, student).
type UpsertGradeRequest struct {
	AssignmentID int64    `json:"assignment_id" validate:"required,gt=0"`
	StudentID    int64    `json:"student_id" validate:"required,gt=0"`
	Score        *float64 `json:"score" validate:"required"`
}

// GradeRecord is a grade joined with the assignment columns needed for aggregation.
type GradeRecord struct {
	AssignmentID int64   `db:"assignment_id" json:"assignment_id"`
	SectionID    int64   `db:"section_id" json:"section_id"`
	Title        string  `db:"title" json:"title"`
	Score        float64 `db:"score" json:"score"`
	MaxScore     float64 `db:"max_score" json:"max_score"`
	Weight       float64 `db:"weight" json:"weight"`
}

// SectionFinal is the derived result for one section. Never stored.
type SectionFinal struct {
	SectionID int64    `json:"section_id"`
	Percent   *float64 `json:"percent"`
	Letter    *string  `json:"letter"`
}

// GPAReport is the unweighted 4-point summary across sections.
type GPAReport struct {
	StudentID int64          `json:"student_id"`
	Finals    []SectionFinal `json:"finals"`
	GPA       *float64       `json:"gpa"`
}
