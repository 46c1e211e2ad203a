package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/middleware"
	apperrors "github.com/jwalitptl/showcase-api/pkg/errors"
	"github.com/jwalitptl/showcase-api/pkg/httputil"
)

// PathID parses a uuid path parameter, writing a 400 when it is malformed.
func PathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.RespondWithError(c, apperrors.InvalidArgument("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// Actor returns the authenticated caller, writing a 401 when there is none.
func Actor(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil).WithMessage("authentication required"))
		return uuid.Nil, false
	}
	return id, true
}

// QueryBool reads an optional boolean query parameter.
func QueryBool(c *gin.Context, name string) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		httputil.RespondWithError(c, apperrors.InvalidArgument("invalid "+name))
		return false, false
	}
	return v, true
}
