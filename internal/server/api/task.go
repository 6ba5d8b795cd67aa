package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/server/biz"
	"github.com/bk-med/kanban/internal/store"
)

type TaskHandlersParams struct {
	fx.In

	TaskService *biz.TaskService
}

func NewTaskHandlers(params TaskHandlersParams) *TaskHandlers {
	return &TaskHandlers{
		TaskService: params.TaskService,
	}
}

type TaskHandlers struct {
	TaskService *biz.TaskService
}

type CreateTaskRequest struct {
	Title        string  `json:"title"          binding:"required"`
	Description  string  `json:"description"`
	Project      int     `json:"project"`
	Status       string  `json:"status"`
	Priority     string  `json:"priority"`
	AssignedToID *int    `json:"assigned_to_id"`
	DueDate      *string `json:"due_date"`
}

func (r CreateTaskRequest) toInput(projectID int) (biz.CreateTaskInput, error) {
	due, err := parseOptionalDate(r.DueDate)
	if err != nil {
		return biz.CreateTaskInput{}, err
	}

	return biz.CreateTaskInput{
		ProjectID:   projectID,
		Title:       r.Title,
		Description: r.Description,
		Status:      store.Status(r.Status),
		Priority:    store.Priority(r.Priority),
		AssigneeID:  r.AssignedToID,
		DueDate:     due,
	}, nil
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}

	t, err := parseDate(*raw)
	if err != nil {
		return nil, errors.New("due_date must be a date like 2025-01-31")
	}

	return &t, nil
}

// List returns visible tasks across all projects, optionally filtered.
func (h *TaskHandlers) List(c *gin.Context) {
	filter, err := bindTaskFilter(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	details, err := h.TaskService.ListTasks(c.Request.Context(), filter)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewTaskResponses(details))
}

// Create creates a task, the flat route with the project in the body.
func (h *TaskHandlers) Create(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("Invalid request format"))
		return
	}

	if req.Project <= 0 {
		JSONError(c, http.StatusBadRequest, errors.New("project is required"))
		return
	}

	input, err := req.toInput(req.Project)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	detail, err := h.TaskService.CreateTask(c.Request.Context(), input)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewTaskResponse(detail))
}

// Get returns one task.
func (h *TaskHandlers) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.TaskService.GetTask(c.Request.Context(), id)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewTaskResponse(detail))
}

// UpdateTaskRequest replaces the task. Omitted optional fields fall back to
// their defaults, a missing assignee unassigns and a missing due date clears.
type UpdateTaskRequest struct {
	Title        string  `json:"title"          binding:"required"`
	Description  string  `json:"description"`
	Status       string  `json:"status"`
	Priority     string  `json:"priority"`
	AssignedToID *int    `json:"assigned_to_id"`
	DueDate      *string `json:"due_date"`
}

// Update replaces the task's mutable fields.
func (h *TaskHandlers) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("Invalid request format"))
		return
	}

	due, err := parseOptionalDate(req.DueDate)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	detail, err := h.TaskService.UpdateTask(c.Request.Context(), id, biz.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      store.Status(req.Status),
		Priority:    store.Priority(req.Priority),
		AssigneeID:  req.AssignedToID,
		DueDate:     due,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewTaskResponse(detail))
}

// Delete removes the task. Project residents only, assignment alone is not
// enough.
func (h *TaskHandlers) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.TaskService.DeleteTask(c.Request.Context(), id); err != nil {
		BizError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
