package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/objects"
	"github.com/bk-med/kanban/internal/server/biz"
	"github.com/bk-med/kanban/internal/store"
)

type AdminHandlersParams struct {
	fx.In

	UserService    *biz.UserService
	ProjectService *biz.ProjectService
	TaskService    *biz.TaskService
}

func NewAdminHandlers(params AdminHandlersParams) *AdminHandlers {
	return &AdminHandlers{
		UserService:    params.UserService,
		ProjectService: params.ProjectService,
		TaskService:    params.TaskService,
	}
}

// AdminHandlers back the superauthority-only surface. The routes sit behind
// the admin middleware, and the services enforce the same gate again.
type AdminHandlers struct {
	UserService    *biz.UserService
	ProjectService *biz.ProjectService
	TaskService    *biz.TaskService
}

// ListUsers returns every account.
func (h *AdminHandlers) ListUsers(c *gin.Context) {
	users, err := h.UserService.ListUsers(c.Request.Context())
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(users, func(u *store.User, _ int) *objects.UserInfo {
		return biz.ConvertUserToUserInfo(u)
	}))
}

type CreateUserRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email"    binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin"`
	IsActive  *bool  `json:"is_active"`
}

// CreateUser creates an account with chosen flags.
func (h *AdminHandlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("Invalid request format"))
		return
	}

	user, err := h.UserService.CreateUser(c.Request.Context(), biz.CreateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsAdmin:   req.IsAdmin,
		IsActive:  req.IsActive,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, biz.ConvertUserToUserInfo(user))
}

type UpdateUserRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	IsAdmin   *bool   `json:"is_admin"`
	IsActive  *bool   `json:"is_active"`
}

// UpdateUser partially updates an account.
func (h *AdminHandlers) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("Invalid request format"))
		return
	}

	user, err := h.UserService.UpdateUser(c.Request.Context(), id, biz.UpdateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsAdmin:   req.IsAdmin,
		IsActive:  req.IsActive,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, biz.ConvertUserToUserInfo(user))
}

// DeleteUser removes an account and its owned projects.
func (h *AdminHandlers) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.UserService.DeleteUser(c.Request.Context(), id); err != nil {
		BizError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListProjects returns every project, the admin principal sees them all.
func (h *AdminHandlers) ListProjects(c *gin.Context) {
	details, err := h.ProjectService.ListProjects(c.Request.Context())
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewProjectResponses(details))
}

// DeleteProject removes any project.
func (h *AdminHandlers) DeleteProject(c *gin.Context) {
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

// ListTasks returns every task, optionally filtered.
func (h *AdminHandlers) ListTasks(c *gin.Context) {
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

// DeleteTask removes any task.
func (h *AdminHandlers) DeleteTask(c *gin.Context) {
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
