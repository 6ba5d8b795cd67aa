package api

import (
	"time"

	"github.com/samber/lo"

	"github.com/bk-med/kanban/internal/objects"
	"github.com/bk-med/kanban/internal/server/biz"
	"github.com/bk-med/kanban/internal/store"
)

// The response shapes embed the related users instead of bare ids, clients
// never have to chase references for display names.

type ProjectResponse struct {
	ID          int                 `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Owner       *objects.UserInfo   `json:"owner"`
	Members     []*objects.UserInfo `json:"members"`
	CreatedAt   time.Time           `json:"created_at"`
}

type TaskResponse struct {
	ID          int               `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Project     int               `json:"project"`
	Status      store.Status      `json:"status"`
	Priority    store.Priority    `json:"priority"`
	AssignedTo  *objects.UserInfo `json:"assigned_to"`
	DueDate     *string           `json:"due_date"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type CommentResponse struct {
	ID        int               `json:"id"`
	Task      int               `json:"task"`
	Author    *objects.UserInfo `json:"author"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
}

type ActivityLogResponse struct {
	ID        int               `json:"id"`
	Task      int               `json:"task"`
	User      *objects.UserInfo `json:"user"`
	Action    string            `json:"action"`
	CreatedAt time.Time         `json:"created_at"`
}

func userInfoOrNil(u *store.User) *objects.UserInfo {
	if u == nil {
		return nil
	}

	return biz.ConvertUserToUserInfo(u)
}

// Due dates travel as plain dates on the wire.
func formatDueDate(t *time.Time) *string {
	if t == nil {
		return nil
	}

	return lo.ToPtr(t.Format("2006-01-02"))
}

func NewProjectResponse(detail *biz.ProjectDetail) *ProjectResponse {
	return &ProjectResponse{
		ID:          detail.Project.ID,
		Name:        detail.Project.Name,
		Description: detail.Project.Description,
		Owner:       userInfoOrNil(detail.Owner),
		Members:     lo.Map(detail.Members, func(u *store.User, _ int) *objects.UserInfo { return userInfoOrNil(u) }),
		CreatedAt:   detail.Project.CreatedAt,
	}
}

func NewProjectResponses(details []*biz.ProjectDetail) []*ProjectResponse {
	return lo.Map(details, func(d *biz.ProjectDetail, _ int) *ProjectResponse { return NewProjectResponse(d) })
}

func NewTaskResponse(detail *biz.TaskDetail) *TaskResponse {
	return &TaskResponse{
		ID:          detail.Task.ID,
		Title:       detail.Task.Title,
		Description: detail.Task.Description,
		Project:     detail.Task.ProjectID,
		Status:      detail.Task.Status,
		Priority:    detail.Task.Priority,
		AssignedTo:  userInfoOrNil(detail.Assignee),
		DueDate:     formatDueDate(detail.Task.DueDate),
		CreatedAt:   detail.Task.CreatedAt,
		UpdatedAt:   detail.Task.UpdatedAt,
	}
}

func NewTaskResponses(details []*biz.TaskDetail) []*TaskResponse {
	return lo.Map(details, func(d *biz.TaskDetail, _ int) *TaskResponse { return NewTaskResponse(d) })
}

func NewCommentResponse(detail *biz.CommentDetail) *CommentResponse {
	return &CommentResponse{
		ID:        detail.Comment.ID,
		Task:      detail.Comment.TaskID,
		Author:    userInfoOrNil(detail.Author),
		Content:   detail.Comment.Content,
		CreatedAt: detail.Comment.CreatedAt,
	}
}

func NewCommentResponses(details []*biz.CommentDetail) []*CommentResponse {
	return lo.Map(details, func(d *biz.CommentDetail, _ int) *CommentResponse { return NewCommentResponse(d) })
}

func NewActivityLogResponse(detail *biz.ActivityDetail) *ActivityLogResponse {
	return &ActivityLogResponse{
		ID:        detail.Entry.ID,
		Task:      detail.Entry.TaskID,
		User:      userInfoOrNil(detail.User),
		Action:    detail.Entry.Action,
		CreatedAt: detail.Entry.CreatedAt,
	}
}

func NewActivityLogResponses(details []*biz.ActivityDetail) []*ActivityLogResponse {
	return lo.Map(details, func(d *biz.ActivityDetail, _ int) *ActivityLogResponse { return NewActivityLogResponse(d) })
}
