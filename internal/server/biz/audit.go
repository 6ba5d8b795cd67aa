package biz

import (
	"context"
	"fmt"

	"github.com/bk-med/kanban/internal/authz"
	"github.com/bk-med/kanban/internal/contexts"
	"github.com/bk-med/kanban/internal/store"
)

// Audit vocabulary. The strings are stable; clients and tests match on them
// verbatim.
const auditCreated = "created task"

func auditStatusChanged(status store.Status) string {
	return fmt.Sprintf("status changed to %s", status)
}

func auditAssigned(username string) string {
	return fmt.Sprintf("assigned to %s", username)
}

func auditUnassigned(username string) string {
	return fmt.Sprintf("unassigned from %s", username)
}

// Recorder appends the audit entries describing task transitions. Calls must
// run inside the same transaction as the mutation they describe so the entry
// and the mutation commit or roll back together.
type Recorder struct {
	store *store.Store
}

func NewRecorder(st *store.Store) *Recorder {
	return &Recorder{store: st}
}

func (r *Recorder) record(ctx context.Context, taskID int, actorID *int, action string) error {
	entry := &store.ActivityLog{
		TaskID: taskID,
		UserID: actorID,
		Action: action,
	}

	if err := r.store.ActivityLogs.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

func (r *Recorder) TaskCreated(ctx context.Context, actorID *int, taskID int) error {
	return r.record(ctx, taskID, actorID, auditCreated)
}

func (r *Recorder) StatusChanged(ctx context.Context, actorID *int, taskID int, status store.Status) error {
	return r.record(ctx, taskID, actorID, auditStatusChanged(status))
}

func (r *Recorder) Assigned(ctx context.Context, actorID *int, taskID int, assignee string) error {
	return r.record(ctx, taskID, actorID, auditAssigned(assignee))
}

func (r *Recorder) Unassigned(ctx context.Context, actorID *int, taskID int, previous string) error {
	return r.record(ctx, taskID, actorID, auditUnassigned(previous))
}

// actorID identifies the user behind the mutation, nil for system and test
// principals.
func actorID(ctx context.Context) *int {
	if user, ok := contexts.GetUser(ctx); ok {
		return &user.ID
	}

	if principal, ok := authz.GetPrincipal(ctx); ok && principal.IsUser() {
		return principal.UserID
	}

	return nil
}

func actorName(ctx context.Context) string {
	if user, ok := contexts.GetUser(ctx); ok {
		return user.Username
	}

	return ""
}
