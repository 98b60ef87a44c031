package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/biniyam0960/Student-information-System/internal/models"
	"github.com/biniyam0960/Student-information-System/pkg/response"
)

type attendanceService interface {
	Mark(ctx context.Context, req models.MarkAttendanceRequest) (*models.Attendance, error)
	ListBySectionDate(ctx context.Context, sectionID int64, date string) ([]models.Attendance, error)
	ListMine(ctx context.Context, userID int64) ([]models.Attendance, error)
}

// AttendanceHandler exposes attendance marking and lookups.
type AttendanceHandler struct {
	attendance attendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Mark godoc
// @Summary Mark attendance
// @Description One record per student, section and date. Re-marking replaces the status.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body models.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req models.MarkAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	record, err := h.attendance.Mark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// BySection godoc
// @Summary Attendance for a section day
// @Tags Attendance
// @Produce json
// @Param sectionId path int true "Section ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/section/{sectionId} [get]
func (h *AttendanceHandler) BySection(c *gin.Context) {
	sectionID, ok := pathID(c, "sectionId")
	if !ok {
		return
	}
	items, err := h.attendance.ListBySectionDate(c.Request.Context(), sectionID, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Mine godoc
// @Summary My attendance
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/my [get]
func (h *AttendanceHandler) Mine(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	items, err := h.attendance.ListMine(c.Request.Context(), actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}
