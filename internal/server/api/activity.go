package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/server/biz"
)

type ActivityHandlersParams struct {
	fx.In

	ActivityLogService *biz.ActivityLogService
}

func NewActivityHandlers(params ActivityHandlersParams) *ActivityHandlers {
	return &ActivityHandlers{
		ActivityLogService: params.ActivityLogService,
	}
}

// ActivityHandlers serve the audit trail. Read-only, there is no write
// route to register.
type ActivityHandlers struct {
	ActivityLogService *biz.ActivityLogService
}

// List returns the visibility-filtered activity feed, newest first.
func (h *ActivityHandlers) List(c *gin.Context) {
	details, err := h.ActivityLogService.ListLogs(c.Request.Context())
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewActivityLogResponses(details))
}

// TaskTrail returns one task's audit trail, oldest first.
func (h *ActivityHandlers) TaskTrail(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	details, err := h.ActivityLogService.ListTaskLogs(c.Request.Context(), taskID)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewActivityLogResponses(details))
}
