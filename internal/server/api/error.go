package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bk-med/kanban/internal/log"
	"github.com/bk-med/kanban/internal/objects"
	"github.com/bk-med/kanban/internal/server/biz"
)

// JSONError returns a JSON error response and adds the error to gin context for access logging.
func JSONError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, objects.ErrorResponse{
		Error: objects.Error{
			Type:    http.StatusText(status),
			Message: err.Error(),
		},
	})
}

// BizError maps the service error taxonomy onto HTTP statuses. Unknown
// errors are logged and answered with a generic 500, internals never leak
// into the response body.
func BizError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, biz.ErrValidation):
		JSONError(c, http.StatusBadRequest, err)
	case errors.Is(err, biz.ErrNotFound):
		JSONError(c, http.StatusNotFound, err)
	case errors.Is(err, biz.ErrPermissionDenied):
		JSONError(c, http.StatusForbidden, err)
	case errors.Is(err, biz.ErrDuplicate):
		JSONError(c, http.StatusConflict, err)
	case errors.Is(err, biz.ErrInvalidPassword), errors.Is(err, biz.ErrInvalidJWT):
		JSONError(c, http.StatusUnauthorized, err)
	default:
		log.Error(c.Request.Context(), "request failed", log.Cause(err))
		JSONError(c, http.StatusInternalServerError, errors.New("Internal server error"))
	}
}
