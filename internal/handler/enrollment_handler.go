package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biniyam0960/Student-information-System/internal/models"
	"github.com/biniyam0960/Student-information-System/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, userID int64, req models.EnrollRequest) (*models.Enrollment, error)
	Drop(ctx context.Context, userID int64, req models.DropRequest) (*models.DropResult, error)
	ListMine(ctx context.Context, userID int64) ([]models.StudentEnrollment, error)
	ListBySection(ctx context.Context, sectionID int64) ([]models.SectionEnrollment, error)
}

// EnrollmentHandler exposes seat requests, drops and rosters.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Enroll godoc
// @Summary Request a seat
// @Description Enrolls the caller, or places them on the waitlist when the section is full.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body models.EnrollRequest true "Section to join"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req models.EnrollRequest
	if !bindJSON(c, &req, "invalid enrollment payload") {
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), actor.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Drop godoc
// @Summary Drop a section
// @Description Releases the caller's seat or waitlist place. The earliest waitlisted student may be promoted.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body models.DropRequest true "Section to leave"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/drop [post]
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req models.DropRequest
	if !bindJSON(c, &req, "invalid drop payload") {
		return
	}
	result, err := h.enrollments.Drop(c.Request.Context(), actor.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Mine godoc
// @Summary List my enrollments
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/me [get]
func (h *EnrollmentHandler) Mine(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	items, err := h.enrollments.ListMine(c.Request.Context(), actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// BySection godoc
// @Summary Section roster
// @Tags Enrollments
// @Produce json
// @Param sectionId path int true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/section/{sectionId} [get]
func (h *EnrollmentHandler) BySection(c *gin.Context) {
	sectionID, ok := pathID(c, "sectionId")
	if !ok {
		return
	}
	items, err := h.enrollments.ListBySection(c.Request.Context(), sectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}
