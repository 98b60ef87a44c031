package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/biniyam0960/Student-information-System/internal/middleware"
	"github.com/biniyam0960/Student-information-System/internal/service"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
	"github.com/biniyam0960/Student-information-System/pkg/response"
)

// actorOrAbort writes a 401 and returns false when the request is unauthenticated.
func actorOrAbort(c *gin.Context) (service.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return service.Actor{}, false
	}
	return actor, true
}

// pathID parses a positive integer path parameter, writing a 400 on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}

// bindJSON decodes the body into dest, writing a 400 on failure.
func bindJSON(c *gin.Context, dest interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg))
		return false
	}
	return true
}
