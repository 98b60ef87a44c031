package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biniyam0960/Student-information-System/internal/models"
	"github.com/biniyam0960/Student-information-System/internal/service"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
	"github.com/biniyam0960/Student-information-System/pkg/response"
)

type exportService interface {
	ExportMyTranscript(ctx context.Context, userID int64, req models.ExportRequest) (*models.ExportResult, error)
	ExportRoster(ctx context.Context, actor service.Actor, sectionID int64, req models.ExportRequest) (*models.ExportResult, error)
	Download(token string) (*service.ExportDownload, error)
}

// ExportHandler generates CSV/PDF exports and serves signed downloads.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Transcript godoc
// @Summary Export my transcript
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body models.ExportRequest false "Format (csv or pdf, default csv)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /grades/my/transcript/export [post]
func (h *ExportHandler) Transcript(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	req, ok := exportRequest(c)
	if !ok {
		return
	}
	result, err := h.exports.ExportMyTranscript(c.Request.Context(), actor.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Roster godoc
// @Summary Export section roster
// @Description Teachers may only export sections they teach.
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path int true "Section ID"
// @Param payload body models.ExportRequest false "Format (csv or pdf, default csv)"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id}/roster/export [post]
func (h *ExportHandler) Roster(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	sectionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, ok := exportRequest(c)
	if !ok {
		return
	}
	result, err := h.exports.ExportRoster(c.Request.Context(), actor, sectionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download an export
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	result, err := h.exports.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), result.ContentType, result.File, nil)
}

// exportRequest reads the format from an optional JSON body, falling back to ?format=.
func exportRequest(c *gin.Context) (models.ExportRequest, bool) {
	var req models.ExportRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req, "invalid export payload") {
			return req, false
		}
	}
	if req.Format == "" {
		req.Format = c.Query("format")
	}
	return req, true
}
