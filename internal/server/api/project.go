package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/server/biz"
)

type ProjectHandlersParams struct {
	fx.In

	ProjectService *biz.ProjectService
	TaskService    *biz.TaskService
}

func NewProjectHandlers(params ProjectHandlersParams) *ProjectHandlers {
	return &ProjectHandlers{
		ProjectService: params.ProjectService,
		TaskService:    params.TaskService,
	}
}

type ProjectHandlers struct {
	ProjectService *biz.ProjectService
	TaskService    *biz.TaskService
}

// List returns every project the caller can see.
func (h *ProjectHandlers) List(c *gin.Context) {
	details, err := h.ProjectService.ListProjects(c.Request.Context())
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewProjectResponses(details))
}

type CreateProjectRequest struct {
	Name        string `json:"name"        binding:"required"`
	Description string `json:"description"`
}

// Create creates a project owned by the caller.
func (h *ProjectHandlers) Create(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("Invalid request format"))
		return
	}

	detail, err := h.ProjectService.CreateProject(c.Request.Context(), biz.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewProjectResponse(detail))
}

// Get returns one project.
func (h *ProjectHandlers) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.ProjectService.GetProject(c.Request.Context(), id)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewProjectResponse(detail))
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Update updates the project's own fields. Owner only.
func (h *ProjectHandlers) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("Invalid request format"))
		return
	}

	detail, err := h.ProjectService.UpdateProject(c.Request.Context(), id, biz.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewProjectResponse(detail))
}

// Delete removes the project and everything under it. Owner only.
func (h *ProjectHandlers) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.ProjectService.DeleteProject(c.Request.Context(), id); err != nil {
		BizError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type AddMemberRequest struct {
	UserID int `json:"user_id" binding:"required"`
}

// AddMember puts a user on the roster. Owner only.
func (h *ProjectHandlers) AddMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("Invalid request format"))
		return
	}

	if err := h.ProjectService.AddMember(c.Request.Context(), id, req.UserID); err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "member added"})
}

// RemoveMember takes a user off the roster. Owner only, the owner itself
// cannot be removed.
func (h *ProjectHandlers) RemoveMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}

	if err := h.ProjectService.RemoveMember(c.Request.Context(), id, userID); err != nil {
		BizError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Stats returns the project dashboard numbers.
func (h *ProjectHandlers) Stats(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	stats, err := h.ProjectService.Stats(c.Request.Context(), id)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListTasks returns the project's tasks, the nested collection route.
func (h *ProjectHandlers) ListTasks(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	filter, err := bindTaskFilter(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	details, err := h.TaskService.ListProjectTasks(c.Request.Context(), id, filter)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewTaskResponses(details))
}

// CreateTask creates a task in the project, the nested create route.
func (h *ProjectHandlers) CreateTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("Invalid request format"))
		return
	}

	input, err := req.toInput(id)
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
