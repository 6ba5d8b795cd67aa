package biz

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bk-med/kanban/internal/authz"
	"github.com/bk-med/kanban/internal/contexts"
	"github.com/bk-med/kanban/internal/store"

	_ "github.com/bk-med/kanban/internal/pkg/sqlite"
)

func newTestServices(t *testing.T) *TestServices {
	t.Helper()

	st, err := store.Open(store.Config{
		Dialect: "sqlite",
		DSN:     filepath.Join(t.TempDir(), "kanban.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Migrate(context.Background()))

	return NewServicesForTest(st)
}

func seedUser(t *testing.T, svc *TestServices, username string, admin bool) *store.User {
	t.Helper()

	hashed, err := HashPassword("password-" + username)
	require.NoError(t, err)

	user := &store.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hashed,
		IsAdmin:  admin,
		IsActive: true,
	}
	require.NoError(t, svc.Store.Users.Create(context.Background(), user))

	return user
}

func seedProject(t *testing.T, svc *TestServices, owner *store.User, members ...*store.User) *store.Project {
	t.Helper()

	ctx := context.Background()

	project := &store.Project{
		Name:        "project of " + owner.Username,
		Description: "seeded",
		OwnerID:     owner.ID,
	}
	require.NoError(t, svc.Store.Projects.Create(ctx, project))

	for _, member := range members {
		require.NoError(t, svc.Store.Projects.AddMember(ctx, project.ID, member.ID))
	}

	return project
}

func seedTask(t *testing.T, svc *TestServices, project *store.Project, title string, assignee *store.User) *store.Task {
	t.Helper()

	task := &store.Task{
		ProjectID:   project.ID,
		Title:       title,
		Description: "seeded",
		Status:      store.StatusTodo,
		Priority:    store.PriorityMedium,
	}
	if assignee != nil {
		task.AssigneeID = &assignee.ID
	}

	require.NoError(t, svc.Store.Tasks.Create(context.Background(), task))

	return task
}

// userContext builds the context the auth middleware would: principal plus
// the loaded user.
func userContext(user *store.User) context.Context {
	ctx := authz.NewUserContext(context.Background(), user.ID, user.IsAdmin)
	return contexts.WithUser(ctx, user)
}

func taskActions(t *testing.T, svc *TestServices, taskID int) []string {
	t.Helper()

	entries, err := svc.Store.ActivityLogs.ListByTask(context.Background(), taskID)
	require.NoError(t, err)

	actions := make([]string, 0, len(entries))
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}

	return actions
}

func dueIn(days int) *time.Time {
	due := time.Now().AddDate(0, 0, days)
	return &due
}
