package biz

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bk-med/kanban/internal/store"
)

func TestListLogs_Visibility(t *testing.T) {
	svc := newTestServices(t)

	alice := seedUser(t, svc, "alice", false)
	mika := seedUser(t, svc, "mika", false)
	bruno := seedUser(t, svc, "bruno", false)
	outsider := seedUser(t, svc, "outsider", false)
	admin := seedUser(t, svc, "admin", true)

	shared := seedProject(t, svc, alice, mika)
	private := seedProject(t, svc, bruno)

	created, err := svc.Tasks.CreateTask(userContext(alice), CreateTaskInput{
		ProjectID: shared.ID,
		Title:     "shared work",
	})
	require.NoError(t, err)

	_, err = svc.Tasks.UpdateTask(userContext(alice), created.Task.ID, UpdateTaskInput{
		Title:  created.Task.Title,
		Status: store.StatusInProgress,
	})
	require.NoError(t, err)

	_, err = svc.Tasks.CreateTask(userContext(bruno), CreateTaskInput{
		ProjectID: private.ID,
		Title:     "private work",
	})
	require.NoError(t, err)

	// Residents get their project's entries, newest first.
	feed, err := svc.Activity.ListLogs(userContext(mika))
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "status changed to IN_PROGRESS", feed[0].Entry.Action)
	assert.Equal(t, "created task", feed[1].Entry.Action)

	for _, detail := range feed {
		assert.Equal(t, shared.ID, detail.Entry.ProjectID)
	}

	feed, err = svc.Activity.ListLogs(userContext(admin))
	require.NoError(t, err)
	assert.Len(t, feed, 3)

	// An empty feed, not an error, for users on no roster.
	feed, err = svc.Activity.ListLogs(userContext(outsider))
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestListTaskLogs(t *testing.T) {
	svc := newTestServices(t)

	owner := seedUser(t, svc, "owner", false)
	bob := seedUser(t, svc, "bob", false)
	outsider := seedUser(t, svc, "outsider", false)
	project := seedProject(t, svc, owner, bob)

	created, err := svc.Tasks.CreateTask(userContext(owner), CreateTaskInput{
		ProjectID: project.ID,
		Title:     "traced",
	})
	require.NoError(t, err)

	taskID := created.Task.ID

	_, err = svc.Tasks.UpdateTask(userContext(owner), taskID, UpdateTaskInput{
		Title:  created.Task.Title,
		Status: store.StatusInProgress,
	})
	require.NoError(t, err)

	_, err = svc.Tasks.UpdateTask(userContext(bob), taskID, UpdateTaskInput{
		Title:      created.Task.Title,
		Status:     store.StatusInProgress,
		AssigneeID: &bob.ID,
	})
	require.NoError(t, err)

	trail, err := svc.Activity.ListTaskLogs(userContext(bob), taskID)
	require.NoError(t, err)

	actions := lo.Map(trail, func(detail *ActivityDetail, _ int) string { return detail.Entry.Action })
	assert.Equal(t, []string{"created task", "status changed to IN_PROGRESS", "assigned to bob"}, actions)

	// Each entry carries the actor that caused it.
	require.NotNil(t, trail[0].User)
	assert.Equal(t, "owner", trail[0].User.Username)
	require.NotNil(t, trail[2].User)
	assert.Equal(t, "bob", trail[2].User.Username)

	_, err = svc.Activity.ListTaskLogs(userContext(outsider), taskID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Activity.ListTaskLogs(userContext(owner), 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListTaskLogs_DeletedActor(t *testing.T) {
	svc := newTestServices(t)

	owner := seedUser(t, svc, "owner", false)
	temp := seedUser(t, svc, "temp", false)
	admin := seedUser(t, svc, "admin", true)
	project := seedProject(t, svc, owner, temp)

	created, err := svc.Tasks.CreateTask(userContext(temp), CreateTaskInput{
		ProjectID: project.ID,
		Title:     "orphaned trail",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Users.DeleteUser(userContext(admin), temp.ID))

	trail, err := svc.Activity.ListTaskLogs(userContext(owner), created.Task.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)

	// The entry outlives its actor, anonymized.
	assert.Nil(t, trail[0].Entry.UserID)
	assert.Nil(t, trail[0].User)
}
