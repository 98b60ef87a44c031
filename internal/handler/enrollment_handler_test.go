package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biniyam0960/Student-information-System/internal/models"
	"github.com/biniyam0960/Student-information-System/internal/repository/memory"
	"github.com/biniyam0960/Student-information-System/internal/service"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
	"github.com/biniyam0960/Student-information-System/pkg/jobs"
	"github.com/biniyam0960/Student-information-System/pkg/storage"
)

// sameIDStudents maps user N to student N.
type sameIDStudents struct{}

func (sameIDStudents) ResolveByUser(_ context.Context, userID int64) (*models.StudentDetail, error) {
	return &models.StudentDetail{Student: models.Student{ID: userID, UserID: userID, StudentNumber: fmt.Sprintf("S-%03d", userID)}}, nil
}

type discardQueue struct{}

func (discardQueue) Enqueue(jobs.Job) error { return nil }

func newEnrollmentHandler(capacity int) *EnrollmentHandler {
	store := memory.NewStore()
	store.PutCourse(models.Course{ID: 1, Title: "Networks", Credits: 3})
	store.PutSection(models.Section{ID: 10, CourseID: 1, Capacity: capacity})
	svc := service.NewEnrollmentService(store, sameIDStudents{}, store.Sections(), discardQueue{}, nil, nil, nil, service.EnrollmentConfig{AutoPromote: true})
	return NewEnrollmentHandler(svc)
}

func enroll(t *testing.T, h *EnrollmentHandler, userID, sectionID int64) *models.Enrollment {
	t.Helper()
	c, w := newGinContext(http.MethodPost, "/enrollments", mustJSON(t, models.EnrollRequest{SectionID: sectionID}))
	withUser(c, userID, models.RoleStudent)
	h.Enroll(c)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var e models.Enrollment
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &e))
	return &e
}

func TestEnrollmentHandlerWaitlistAndPromotion(t *testing.T) {
	h := newEnrollmentHandler(1)

	assert.Equal(t, models.EnrollmentStatusEnrolled, enroll(t, h, 1, 10).Status)
	assert.Equal(t, models.EnrollmentStatusWaitlisted, enroll(t, h, 2, 10).Status)

	c, w := newGinContext(http.MethodPost, "/enrollments", mustJSON(t, models.EnrollRequest{SectionID: 10}))
	withUser(c, 1, models.RoleStudent)
	h.Enroll(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_ENROLLED", decode(t, w).Error.Code)

	c, w = newGinContext(http.MethodPost, "/enrollments/drop", mustJSON(t, models.DropRequest{SectionID: 10}))
	withUser(c, 1, models.RoleStudent)
	h.Drop(c)
	require.Equal(t, http.StatusOK, w.Code)
	var result models.DropResult
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	require.NotNil(t, result.Promoted)
	assert.Equal(t, int64(2), result.Promoted.StudentID)

	c, w = newGinContext(http.MethodGet, "/enrollments/section/10", nil)
	c.Params = gin.Params{{Key: "sectionId", Value: "10"}}
	h.BySection(c)
	require.Equal(t, http.StatusOK, w.Code)
	var roster []models.SectionEnrollment
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &roster))
	assert.Len(t, roster, 2)
}

func TestEnrollmentHandlerMine(t *testing.T) {
	h := newEnrollmentHandler(3)
	enroll(t, h, 5, 10)

	c, w := newGinContext(http.MethodGet, "/enrollments/me", nil)
	withUser(c, 5, models.RoleStudent)
	h.Mine(c)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []models.StudentEnrollment
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "Networks", mine[0].CourseTitle)

	c, w = newGinContext(http.MethodPost, "/enrollments", mustJSON(t, models.EnrollRequest{SectionID: 404}))
	withUser(c, 5, models.RoleStudent)
	h.Enroll(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type gradeServiceMock struct {
	hit bool
}

func (m *gradeServiceMock) CreateAssignment(_ context.Context, req models.CreateAssignmentRequest) (*models.Assignment, error) {
	return &models.Assignment{ID: 1, SectionID: req.SectionID}, nil
}

func (m *gradeServiceMock) ListAssignments(context.Context, int64) ([]models.Assignment, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
}

func (m *gradeServiceMock) UpsertGrade(context.Context, models.UpsertGradeRequest) (*models.Grade, error) {
	return nil, appErrors.Clone(appErrors.ErrValidation, "score must be non-negative")
}

func (m *gradeServiceMock) MySectionGrades(context.Context, int64, int64) ([]models.GradeRecord, error) {
	return []models.GradeRecord{}, nil
}

func (m *gradeServiceMock) MyGPA(_ context.Context, userID int64) (*models.GPAReport, bool, error) {
	return &models.GPAReport{StudentID: userID}, m.hit, nil
}

func (m *gradeServiceMock) StudentGPA(_ context.Context, studentID int64) (*models.GPAReport, bool, error) {
	gpa := 3.5
	return &models.GPAReport{StudentID: studentID, GPA: &gpa}, m.hit, nil
}

func TestGradeHandlerGPAReportsCacheHit(t *testing.T) {
	h := NewGradeHandler(&gradeServiceMock{hit: true})

	c, w := newGinContext(http.MethodGet, "/grades/students/4/gpa", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "4"}}
	h.StudentGPA(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	env := decode(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	var report models.GPAReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.InDelta(t, 3.5, *report.GPA, 1e-9)

	c, w = newGinContext(http.MethodGet, "/grades/my/gpa", nil)
	h.MyGPA(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGradeHandlerErrors(t *testing.T) {
	h := NewGradeHandler(&gradeServiceMock{})

	c, w := newGinContext(http.MethodPost, "/grades/grades", []byte(`{"assignment_id":1,"student_id":2,"score":-4}`))
	h.UpsertGrade(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/grades/assignments/9", nil)
	c.Params = gin.Params{{Key: "sectionId", Value: "9"}}
	h.ListAssignments(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type attendanceServiceMock struct {
	date string
}

func (m *attendanceServiceMock) Mark(_ context.Context, req models.MarkAttendanceRequest) (*models.Attendance, error) {
	return &models.Attendance{SectionID: req.SectionID, StudentID: req.StudentID}, nil
}

func (m *attendanceServiceMock) ListBySectionDate(_ context.Context, _ int64, date string) ([]models.Attendance, error) {
	m.date = date
	if date == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required")
	}
	return []models.Attendance{}, nil
}

func (m *attendanceServiceMock) ListMine(context.Context, int64) ([]models.Attendance, error) {
	return []models.Attendance{}, nil
}

func TestAttendanceHandlerBySectionDate(t *testing.T) {
	svc := &attendanceServiceMock{}
	h := NewAttendanceHandler(svc)

	c, w := newGinContext(http.MethodGet, "/attendance/section/3", nil)
	c.Params = gin.Params{{Key: "sectionId", Value: "3"}}
	h.BySection(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/attendance/section/3?date=2024-03-01", nil)
	c.Params = gin.Params{{Key: "sectionId", Value: "3"}}
	h.BySection(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-03-01", svc.date)
}

type exportServiceMock struct {
	req      models.ExportRequest
	download *service.ExportDownload
}

func (m *exportServiceMock) ExportMyTranscript(_ context.Context, _ int64, req models.ExportRequest) (*models.ExportResult, error) {
	m.req = req
	return &models.ExportResult{ExportID: "x", Format: req.Format, URL: "/api/exports/tok"}, nil
}

func (m *exportServiceMock) ExportRoster(_ context.Context, actor service.Actor, _ int64, req models.ExportRequest) (*models.ExportResult, error) {
	m.req = req
	if actor.Role == models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers may only export their own sections")
	}
	return &models.ExportResult{ExportID: "y", Format: req.Format}, nil
}

func (m *exportServiceMock) Download(token string) (*service.ExportDownload, error) {
	if m.download == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	return m.download, nil
}

func TestExportHandlerFormatSources(t *testing.T) {
	svc := &exportServiceMock{}
	h := NewExportHandler(svc)

	c, w := newGinContext(http.MethodPost, "/grades/my/transcript/export?format=pdf", nil)
	withUser(c, 1, models.RoleStudent)
	h.Transcript(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "pdf", svc.req.Format)

	c, w = newGinContext(http.MethodPost, "/sections/10/roster/export", []byte(`{"format":"csv"}`))
	withUser(c, 1, models.RoleAdmin)
	c.Params = gin.Params{{Key: "id", Value: "10"}}
	h.Roster(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "csv", svc.req.Format)

	c, w = newGinContext(http.MethodPost, "/sections/10/roster/export", nil)
	withUser(c, 9, models.RoleTeacher)
	c.Params = gin.Params{{Key: "id", Value: "10"}}
	h.Roster(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestExportHandlerDownloadStreamsFile(t *testing.T) {
	dir := t.TempDir()
	files, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	rel, err := files.Save("roster/roster_section_10.csv", []byte("Student No,Name\nS-1,Ada\n"))
	require.NoError(t, err)
	f, err := files.Open(rel)
	require.NoError(t, err)

	h := NewExportHandler(&exportServiceMock{download: &service.ExportDownload{File: f, Filename: filepath.Base(rel), ContentType: "text/csv"}})
	c, w := newGinContext(http.MethodGet, "/exports/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}
	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(w.Header().Get("Content-Disposition"), "roster_section_10.csv"))
	assert.Equal(t, "Student No,Name\nS-1,Ada\n", w.Body.String())
	_, statErr := os.Stat(filepath.Join(dir, rel))
	assert.NoError(t, statErr)

	h = NewExportHandler(&exportServiceMock{})
	c, w = newGinContext(http.MethodGet, "/exports/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
