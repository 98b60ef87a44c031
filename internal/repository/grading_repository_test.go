package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biniyam0960/Student-information-System/internal/models"
)

func TestAssignmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO assignments (section_id, title, max_score, weight)")).
		WithArgs(int64(5), "Midterm", 100.0, 2.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(3, time.Now()))

	a := &models.Assignment{SectionID: 5, Title: "Midterm", MaxScore: 100, Weight: 2}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, int64(3), a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE id = $1")).WithArgs(int64(3)).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 3)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGradeRepositoryUpsertUsesConflictKey(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	upsert := regexp.QuoteMeta("ON CONFLICT (assignment_id, student_id) DO UPDATE SET score = EXCLUDED.score")
	mock.ExpectQuery(upsert).WithArgs(int64(3), int64(9), 40.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "graded_at"}).AddRow(77, time.Now()))
	mock.ExpectQuery(upsert).WithArgs(int64(3), int64(9), 45.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "graded_at"}).AddRow(77, time.Now()))

	first := &models.Grade{AssignmentID: 3, StudentID: 9, Score: 40}
	require.NoError(t, repo.Upsert(context.Background(), first))
	second := &models.Grade{AssignmentID: 3, StudentID: 9, Score: 45}
	require.NoError(t, repo.Upsert(context.Background(), second))

	assert.Equal(t, first.ID, second.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryListRecordsByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN assignments a ON a.id = g.assignment_id WHERE g.student_id = $1 ORDER BY a.section_id")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"assignment_id", "section_id", "title", "score", "max_score", "weight"}).
			AddRow(3, 5, "Midterm", 45.0, 50.0, 2.0).
			AddRow(4, 5, "Quiz", 60.0, 100.0, 1.0))

	records, err := repo.ListRecordsByStudent(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(5), records[1].SectionID)
	assert.Equal(t, 100.0, records[1].MaxScore)
}

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (section_id, student_id, date) DO UPDATE SET status = EXCLUDED.status")).
		WithArgs(int64(5), int64(9), "2024-09-02", models.AttendanceStatusLate).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	mark := &models.Attendance{SectionID: 5, StudentID: 9, Date: "2024-09-02", Status: models.AttendanceStatusLate}
	require.NoError(t, repo.Upsert(context.Background(), mark))
	assert.Equal(t, int64(12), mark.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListBySectionDate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE section_id = $1 AND date = $2::date")).
		WithArgs(int64(5), "2024-09-02").
		WillReturnRows(sqlmock.NewRows([]string{"id", "section_id", "student_id", "date", "status"}).
			AddRow(12, 5, 9, "2024-09-02", "present"))

	rows, err := repo.ListBySectionDate(context.Background(), 5, "2024-09-02")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.AttendanceStatusPresent, rows[0].Status)
}
