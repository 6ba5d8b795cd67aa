package biz

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/authz"
	"github.com/bk-med/kanban/internal/store"
)

type ActivityLogServiceParams struct {
	fx.In

	Store  *store.Store
	Engine *authz.Engine
}

// ActivityLogService exposes the read side of the audit trail. There is no
// write side; entries only appear through the recorder.
type ActivityLogService struct {
	*AbstractService
}

func NewActivityLogService(params ActivityLogServiceParams) *ActivityLogService {
	return &ActivityLogService{
		AbstractService: &AbstractService{
			store:  params.Store,
			engine: params.Engine,
		},
	}
}

// ActivityDetail pairs an audit entry with its expanded actor. User is nil
// for anonymous entries and for actors that were deleted since.
type ActivityDetail struct {
	Entry *store.ActivityLog
	User  *store.User
}

// ListLogs returns the audit entries of every project visible to the caller.
func (s *ActivityLogService) ListLogs(ctx context.Context) ([]*ActivityDetail, error) {
	scope, err := s.visibleScope(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.ActivityLogs.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}

	return s.expandAll(ctx, entries)
}

// ListTaskLogs returns one task's audit trail, oldest first.
func (s *ActivityLogService) ListTaskLogs(ctx context.Context, taskID int) ([]*ActivityDetail, error) {
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

	entries, err := s.store.ActivityLogs.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}

	return s.expandAll(ctx, entries)
}

func (s *ActivityLogService) expandAll(ctx context.Context, entries []*store.ActivityLog) ([]*ActivityDetail, error) {
	// Feeds repeat the same few actors, load each once.
	users := make(map[int]*store.User)

	details := make([]*ActivityDetail, 0, len(entries))

	for _, entry := range entries {
		detail := &ActivityDetail{Entry: entry}

		if entry.UserID != nil {
			user, ok := users[*entry.UserID]
			if !ok {
				loaded, err := s.store.Users.Get(ctx, *entry.UserID)
				if err != nil && !store.NotFound(err) {
					return nil, fmt.Errorf("failed to get actor: %w", err)
				}

				user = loaded
				users[*entry.UserID] = user
			}

			detail.User = user
		}

		details = append(details, detail)
	}

	return details, nil
}
