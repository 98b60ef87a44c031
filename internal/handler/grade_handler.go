package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biniyam0960/Student-information-System/internal/middleware"
	"github.com/biniyam0960/Student-information-System/internal/models"
	"github.com/biniyam0960/Student-information-System/pkg/response"
)

type gradeService interface {
	CreateAssignment(ctx context.Context, req models.CreateAssignmentRequest) (*models.Assignment, error)
	ListAssignments(ctx context.Context, sectionID int64) ([]models.Assignment, error)
	UpsertGrade(ctx context.Context, req models.UpsertGradeRequest) (*models.Grade, error)
	MySectionGrades(ctx context.Context, userID, sectionID int64) ([]models.GradeRecord, error)
	MyGPA(ctx context.Context, userID int64) (*models.GPAReport, bool, error)
	StudentGPA(ctx context.Context, studentID int64) (*models.GPAReport, bool, error)
}

// GradeHandler exposes assignments, scores and GPA.
type GradeHandler struct {
	grades gradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades gradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// CreateAssignment godoc
// @Summary Create assignment
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body models.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /grades/assignments [post]
func (h *GradeHandler) CreateAssignment(c *gin.Context) {
	var req models.CreateAssignmentRequest
	if !bindJSON(c, &req, "invalid assignment payload") {
		return
	}
	item, err := h.grades.CreateAssignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// ListAssignments godoc
// @Summary List section assignments
// @Tags Grades
// @Produce json
// @Param sectionId path int true "Section ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grades/assignments/{sectionId} [get]
func (h *GradeHandler) ListAssignments(c *gin.Context) {
	sectionID, ok := pathID(c, "sectionId")
	if !ok {
		return
	}
	items, err := h.grades.ListAssignments(c.Request.Context(), sectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// UpsertGrade godoc
// @Summary Record a score
// @Description Creates or replaces the score of a student on an assignment.
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body models.UpsertGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /grades/grades [post]
func (h *GradeHandler) UpsertGrade(c *gin.Context) {
	var req models.UpsertGradeRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	grade, err := h.grades.UpsertGrade(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grade)
}

// MySectionGrades godoc
// @Summary My grades in a section
// @Tags Grades
// @Produce json
// @Param sectionId path int true "Section ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grades/my/sections/{sectionId} [get]
func (h *GradeHandler) MySectionGrades(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	sectionID, ok := pathID(c, "sectionId")
	if !ok {
		return
	}
	items, err := h.grades.MySectionGrades(c.Request.Context(), actor.UserID, sectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// MyGPA godoc
// @Summary My GPA
// @Description Unweighted 4-point GPA over graded sections. gpa is null when nothing is graded.
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grades/my/gpa [get]
func (h *GradeHandler) MyGPA(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	report, hit, err := h.grades.MyGPA(c.Request.Context(), actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// StudentGPA godoc
// @Summary Student GPA
// @Tags Grades
// @Produce json
// @Param studentId path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grades/students/{studentId}/gpa [get]
func (h *GradeHandler) StudentGPA(c *gin.Context) {
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	report, hit, err := h.grades.StudentGPA(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}
