package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/server/biz"
)

type CommentHandlersParams struct {
	fx.In

	CommentService *biz.CommentService
}

func NewCommentHandlers(params CommentHandlersParams) *CommentHandlers {
	return &CommentHandlers{
		CommentService: params.CommentService,
	}
}

type CommentHandlers struct {
	CommentService *biz.CommentService
}

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateForTask adds a comment to the task. Project residents only.
func (h *CommentHandlers) CreateForTask(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("Invalid request format"))
		return
	}

	detail, err := h.CommentService.CreateComment(c.Request.Context(), taskID, biz.CreateCommentInput{
		Content: req.Content,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewCommentResponse(detail))
}

// ListForTask returns the task's comments, oldest first.
func (h *CommentHandlers) ListForTask(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	details, err := h.CommentService.ListComments(c.Request.Context(), taskID)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewCommentResponses(details))
}

// Get returns one comment.
func (h *CommentHandlers) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.CommentService.GetComment(c.Request.Context(), id)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewCommentResponse(detail))
}

// Update rewrites the comment body. Author or project resident.
func (h *CommentHandlers) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("Invalid request format"))
		return
	}

	detail, err := h.CommentService.UpdateComment(c.Request.Context(), id, biz.UpdateCommentInput{
		Content: req.Content,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewCommentResponse(detail))
}

// Delete removes the comment. Author or project resident.
func (h *CommentHandlers) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.CommentService.DeleteComment(c.Request.Context(), id); err != nil {
		BizError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
