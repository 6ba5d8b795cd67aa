package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bk-med/kanban/internal/build"
)

func NewSystemHandlers() *SystemHandlers {
	return &SystemHandlers{}
}

type SystemHandlers struct{}

// Health reports liveness along with the build stamp.
func (h *SystemHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"build":  build.GetBuildInfo(),
	})
}
