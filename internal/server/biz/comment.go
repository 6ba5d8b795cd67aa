package biz

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/authz"
	"github.com/bk-med/kanban/internal/store"
)

type CommentServiceParams struct {
	fx.In

	Store  *store.Store
	Engine *authz.Engine
}

type CommentService struct {
	*AbstractService
}

func NewCommentService(params CommentServiceParams) *CommentService {
	return &CommentService{
		AbstractService: &AbstractService{
			store:  params.Store,
			engine: params.Engine,
		},
	}
}

// CommentDetail pairs a comment with its expanded author.
type CommentDetail struct {
	Comment *store.Comment
	Author  *store.User
}

type CreateCommentInput struct {
	Content string
}

type UpdateCommentInput struct {
	Content string
}

func validateContent(content string) error {
	var f fieldErrors
	if strings.TrimSpace(content) == "" {
		f.Add("content", "is required")
	}

	return f.Err()
}

// CreateComment posts a comment on a task. Residency on the task's project
// gates creation; authorship only matters for later edits.
func (s *CommentService) CreateComment(ctx context.Context, taskID int, input CreateCommentInput) (*CommentDetail, error) {
	if err := validateContent(input.Content); err != nil {
		return nil, err
	}

	principal, ok := authz.GetPrincipal(ctx)
	if !ok || !principal.IsUser() || principal.UserID == nil {
		return nil, fmt.Errorf("comment author must be a user: %w", ErrPermissionDenied)
	}

	task, err := s.store.Tasks.Get(ctx, taskID)
	if err != nil {
		if store.NotFound(err) {
			return nil, notFound(authz.KindTask)
		}

		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if err := s.requireRead(ctx, task); err != nil {
		return nil, err
	}

	comment := &store.Comment{
		TaskID:   taskID,
		AuthorID: *principal.UserID,
		Content:  input.Content,
	}

	if err := s.store.Comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	comment.ProjectID = task.ProjectID

	return s.expand(ctx, comment)
}

// GetComment returns the comment when the caller can read it.
func (s *CommentService) GetComment(ctx context.Context, id int) (*CommentDetail, error) {
	comment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireRead(ctx, comment); err != nil {
		return nil, err
	}

	return s.expand(ctx, comment)
}

// ListComments returns a task's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, taskID int) ([]*CommentDetail, error) {
	task, err := s.store.Tasks.Get(ctx, taskID)
	if err != nil {
		if store.NotFound(err) {
			return nil, notFound(authz.KindTask)
		}

		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if err := s.requireRead(ctx, task); err != nil {
		return nil, err
	}

	comments, err := s.store.Comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	details := make([]*CommentDetail, 0, len(comments))

	for _, comment := range comments {
		detail, err := s.expand(ctx, comment)
		if err != nil {
			return nil, err
		}

		details = append(details, detail)
	}

	return details, nil
}

// UpdateComment replaces the comment body. The author or any project
// resident may write a comment.
func (s *CommentService) UpdateComment(ctx context.Context, id int, input UpdateCommentInput) (*CommentDetail, error) {
	if err := validateContent(input.Content); err != nil {
		return nil, err
	}

	comment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.require(ctx, authz.ActionWrite, comment); err != nil {
		return nil, err
	}

	comment.Content = input.Content

	if err := s.store.Comments.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return s.expand(ctx, comment)
}

// DeleteComment removes the comment.
func (s *CommentService) DeleteComment(ctx context.Context, id int) error {
	comment, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.require(ctx, authz.ActionWrite, comment); err != nil {
		return err
	}

	if err := s.store.Comments.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

func (s *CommentService) load(ctx context.Context, id int) (*store.Comment, error) {
	comment, err := s.store.Comments.Get(ctx, id)
	if err != nil {
		if store.NotFound(err) {
			return nil, notFound(authz.KindComment)
		}

		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return comment, nil
}

func (s *CommentService) expand(ctx context.Context, comment *store.Comment) (*CommentDetail, error) {
	author, err := s.store.Users.Get(ctx, comment.AuthorID)
	if err != nil {
		if store.NotFound(err) {
			return &CommentDetail{Comment: comment}, nil
		}

		return nil, fmt.Errorf("failed to get author: %w", err)
	}

	return &CommentDetail{Comment: comment, Author: author}, nil
}
