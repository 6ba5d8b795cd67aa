package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/bk-med/kanban/internal/store"
)

// pathID parses the named numeric path parameter. On failure it writes the
// 400 response and reports false.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := cast.ToIntE(c.Param(name))
	if err != nil || id <= 0 {
		JSONError(c, http.StatusBadRequest, fmt.Errorf("invalid %s", name))
		return 0, false
	}

	return id, true
}

// parseDate accepts plain dates and full timestamps.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}

	return time.Parse(time.RFC3339, raw)
}

// bindTaskFilter builds the task filter from the query string. Enum values
// pass through as-is, the service validates them.
func bindTaskFilter(c *gin.Context) (store.TaskFilter, error) {
	var filter store.TaskFilter

	if raw := c.Query("project"); raw != "" {
		id, err := cast.ToIntE(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid project filter %q", raw)
		}

		filter.ProjectID = &id
	}

	if raw := c.Query("assignee"); raw != "" {
		id, err := cast.ToIntE(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid assignee filter %q", raw)
		}

		filter.AssigneeID = &id
	}

	if raw := c.Query("status"); raw != "" {
		status := store.Status(raw)
		filter.Status = &status
	}

	if raw := c.Query("priority"); raw != "" {
		priority := store.Priority(raw)
		filter.Priority = &priority
	}

	if raw := c.Query("due_before"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid due_before date %q", raw)
		}

		filter.DueBefore = &t
	}

	if raw := c.Query("due_after"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid due_after date %q", raw)
		}

		filter.DueAfter = &t
	}

	filter.Search = c.Query("search")
	filter.Ordering = c.Query("ordering")

	return filter, nil
}
