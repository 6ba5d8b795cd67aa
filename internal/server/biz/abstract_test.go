package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bk-med/kanban/internal/store"
)

func TestRunInTransaction_Commit(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	owner := seedUser(t, svc, "owner", false)
	project := seedProject(t, svc, owner)

	var taskID int

	err := svc.Tasks.RunInTransaction(ctx, func(txCtx context.Context) error {
		task := &store.Task{
			ProjectID: project.ID,
			Title:     "inside tx",
			Status:    store.StatusTodo,
			Priority:  store.PriorityLow,
		}
		if err := svc.Store.Tasks.Create(txCtx, task); err != nil {
			return err
		}

		taskID = task.ID

		return svc.Recorder.TaskCreated(txCtx, &owner.ID, task.ID)
	})
	require.NoError(t, err)

	_, err = svc.Store.Tasks.Get(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, []string{"created task"}, taskActions(t, svc, taskID))
}

func TestRunInTransaction_RollbackOnError(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	owner := seedUser(t, svc, "owner", false)
	project := seedProject(t, svc, owner)

	boom := errors.New("boom")

	var taskID int

	err := svc.Tasks.RunInTransaction(ctx, func(txCtx context.Context) error {
		task := &store.Task{
			ProjectID: project.ID,
			Title:     "doomed",
			Status:    store.StatusTodo,
			Priority:  store.PriorityLow,
		}
		if err := svc.Store.Tasks.Create(txCtx, task); err != nil {
			return err
		}

		taskID = task.ID

		if err := svc.Recorder.TaskCreated(txCtx, &owner.ID, task.ID); err != nil {
			return err
		}

		return boom
	})
	require.ErrorIs(t, err, boom)

	// The task and its audit entry roll back together.
	_, err = svc.Store.Tasks.Get(ctx, taskID)
	require.ErrorIs(t, err, store.ErrNotFound)

	entries, err := svc.Store.ActivityLogs.List(ctx, store.ScopeAll())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunInTransaction_PanicRollsBack(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	owner := seedUser(t, svc, "owner", false)
	project := seedProject(t, svc, owner)

	func() {
		defer func() {
			r := recover()
			require.Equal(t, "panic inside tx", r)
		}()

		_ = svc.Tasks.RunInTransaction(ctx, func(txCtx context.Context) error {
			task := &store.Task{
				ProjectID: project.ID,
				Title:     "doomed",
				Status:    store.StatusTodo,
				Priority:  store.PriorityLow,
			}
			if err := svc.Store.Tasks.Create(txCtx, task); err != nil {
				return err
			}

			panic("panic inside tx")
		})
	}()

	tasks, err := svc.Store.Tasks.List(ctx, store.ScopeAll(), store.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestRunInTransaction_JoinsAmbientTransaction(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	owner := seedUser(t, svc, "owner", false)
	project := seedProject(t, svc, owner)

	boom := errors.New("outer failure")

	err := svc.Tasks.RunInTransaction(ctx, func(txCtx context.Context) error {
		inner := svc.Tasks.RunInTransaction(txCtx, func(innerCtx context.Context) error {
			task := &store.Task{
				ProjectID: project.ID,
				Title:     "nested",
				Status:    store.StatusTodo,
				Priority:  store.PriorityLow,
			}

			return svc.Store.Tasks.Create(innerCtx, task)
		})
		require.NoError(t, inner)

		// The inner call joined this transaction, so the outer failure
		// discards its write.
		return boom
	})
	require.ErrorIs(t, err, boom)

	tasks, err := svc.Store.Tasks.List(ctx, store.ScopeAll(), store.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
