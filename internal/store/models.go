package store

import (
	"time"

	"github.com/bk-med/kanban/internal/authz"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Valid reports whether the status is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid reports whether the priority is one of the known levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// User is an account that authenticates against the API.
type User struct {
	ID        int        `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	IsAdmin   bool       `json:"is_admin"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// Project is the tenancy boundary. Every task, comment and activity entry
// reaches exactly one project.
type Project struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     int       `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`

	// MemberIDs is the membership roster, loaded on demand.
	MemberIDs []int `json:"member_ids,omitempty"`
}

func (p *Project) ResourceKind() authz.Kind { return authz.KindProject }
func (p *Project) ResourceProject() int     { return p.ID }

// Task is a unit of work inside a project.
type Task struct {
	ID          int        `json:"id"`
	ProjectID   int        `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	AssigneeID  *int       `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Task) ResourceKind() authz.Kind { return authz.KindTask }
func (t *Task) ResourceProject() int     { return t.ProjectID }

// AssigneeUserID implements authz.Assignable.
func (t *Task) AssigneeUserID() (int, bool) {
	if t.AssigneeID == nil {
		return 0, false
	}

	return *t.AssigneeID, true
}

// Comment is a remark on a task. The reachable project is resolved through
// the task at query time, never stored on the comment row.
type Comment struct {
	ID        int       `json:"id"`
	TaskID    int       `json:"task_id"`
	AuthorID  int       `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// ProjectID is populated by the store through the task join.
	ProjectID int `json:"-"`
}

func (c *Comment) ResourceKind() authz.Kind { return authz.KindComment }
func (c *Comment) ResourceProject() int     { return c.ProjectID }

// AuthorUserID implements authz.Authored.
func (c *Comment) AuthorUserID() int { return c.AuthorID }

// ActivityLog is one append-only audit entry for a task mutation.
type ActivityLog struct {
	ID        int       `json:"id"`
	TaskID    int       `json:"task_id"`
	UserID    *int      `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`

	// ProjectID is populated by the store through the task join.
	ProjectID int `json:"-"`
}

func (l *ActivityLog) ResourceKind() authz.Kind { return authz.KindActivityLog }
func (l *ActivityLog) ResourceProject() int     { return l.ProjectID }
