package biz

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bk-med/kanban/internal/store"
)

func TestCreateProject(t *testing.T) {
	svc := newTestServices(t)

	alice := seedUser(t, svc, "alice", false)

	detail, err := svc.Projects.CreateProject(userContext(alice), CreateProjectInput{
		Name:        "launch",
		Description: "the big one",
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, detail.Project.OwnerID)
	assert.Equal(t, "alice", detail.Owner.Username)

	// The owner is seeded onto the roster.
	require.Len(t, detail.Members, 1)
	assert.Equal(t, alice.ID, detail.Members[0].ID)

	_, err = svc.Projects.CreateProject(userContext(alice), CreateProjectInput{Name: "  "})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Projects.CreateProject(context.Background(), CreateProjectInput{Name: "orphan"})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestGetProject_Visibility(t *testing.T) {
	svc := newTestServices(t)

	owner := seedUser(t, svc, "owner", false)
	member := seedUser(t, svc, "member", false)
	outsider := seedUser(t, svc, "outsider", false)
	admin := seedUser(t, svc, "admin", true)
	project := seedProject(t, svc, owner, member)

	detail, err := svc.Projects.GetProject(userContext(member), project.ID)
	require.NoError(t, err)
	memberIDs := lo.Map(detail.Members, func(u *store.User, _ int) int { return u.ID })
	assert.ElementsMatch(t, []int{owner.ID, member.ID}, memberIDs)

	_, err = svc.Projects.GetProject(userContext(admin), project.ID)
	require.NoError(t, err)

	_, err = svc.Projects.GetProject(userContext(outsider), project.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Projects.GetProject(userContext(owner), 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListProjects(t *testing.T) {
	svc := newTestServices(t)

	alice := seedUser(t, svc, "alice", false)
	bob := seedUser(t, svc, "bob", false)
	admin := seedUser(t, svc, "admin", true)

	owned := seedProject(t, svc, alice)
	joined := seedProject(t, svc, bob, alice)
	seedProject(t, svc, bob)

	visible, err := svc.Projects.ListProjects(userContext(alice))
	require.NoError(t, err)
	ids := lo.Map(visible, func(d *ProjectDetail, _ int) int { return d.Project.ID })
	assert.ElementsMatch(t, []int{owned.ID, joined.ID}, ids)

	all, err := svc.Projects.ListProjects(userContext(admin))
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateProject(t *testing.T) {
	svc := newTestServices(t)

	owner := seedUser(t, svc, "owner", false)
	member := seedUser(t, svc, "member", false)
	outsider := seedUser(t, svc, "outsider", false)
	project := seedProject(t, svc, owner, member)

	name := "renamed"

	detail, err := svc.Projects.UpdateProject(userContext(owner), project.ID, UpdateProjectInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", detail.Project.Name)

	// A member can read the project, so the denial is explicit.
	_, err = svc.Projects.UpdateProject(userContext(member), project.ID, UpdateProjectInput{Name: &name})
	require.ErrorIs(t, err, ErrPermissionDenied)

	// An outsider cannot tell the project exists.
	_, err = svc.Projects.UpdateProject(userContext(outsider), project.ID, UpdateProjectInput{Name: &name})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProject(t *testing.T) {
	svc := newTestServices(t)

	owner := seedUser(t, svc, "owner", false)
	member := seedUser(t, svc, "member", false)
	project := seedProject(t, svc, owner, member)
	task := seedTask(t, svc, project, "doomed with the ship", nil)

	err := svc.Projects.DeleteProject(userContext(member), project.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, svc.Projects.DeleteProject(userContext(owner), project.ID))

	_, err = svc.Store.Tasks.Get(context.Background(), task.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAddMember(t *testing.T) {
	svc := newTestServices(t)

	owner := seedUser(t, svc, "owner", false)
	member := seedUser(t, svc, "member", false)
	newcomer := seedUser(t, svc, "newcomer", false)
	project := seedProject(t, svc, owner, member)

	// Roster changes are the owner's alone.
	err := svc.Projects.AddMember(userContext(member), project.ID, newcomer.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, svc.Projects.AddMember(userContext(owner), project.ID, newcomer.ID))

	// The newcomer sees the project immediately.
	_, err = svc.Projects.GetProject(userContext(newcomer), project.ID)
	require.NoError(t, err)

	// Duplicate adds conflict.
	err = svc.Projects.AddMember(userContext(owner), project.ID, newcomer.ID)
	require.ErrorIs(t, err, ErrDuplicate)

	// Unknown users are a validation failure.
	err = svc.Projects.AddMember(userContext(owner), project.ID, 9999)
	require.ErrorIs(t, err, ErrValidation)
}

func TestRemoveMember(t *testing.T) {
	svc := newTestServices(t)

	owner := seedUser(t, svc, "owner", false)
	member := seedUser(t, svc, "member", false)
	project := seedProject(t, svc, owner, member)

	// Membership grants access until the moment of removal.
	_, err := svc.Projects.GetProject(userContext(member), project.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Projects.RemoveMember(userContext(owner), project.ID, member.ID))

	// And none afterwards, without waiting for a cache expiry.
	_, err = svc.Projects.GetProject(userContext(member), project.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// Removing again reports the user as not a member.
	err = svc.Projects.RemoveMember(userContext(owner), project.ID, member.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// The owner cannot be removed.
	err = svc.Projects.RemoveMember(userContext(owner), project.ID, owner.ID)
	require.ErrorIs(t, err, ErrValidation)
}

func TestProjectStats(t *testing.T) {
	svc := newTestServices(t)

	owner := seedUser(t, svc, "owner", false)
	bob := seedUser(t, svc, "bob", false)
	outsider := seedUser(t, svc, "outsider", false)
	project := seedProject(t, svc, owner, bob)

	ctx := context.Background()

	done := seedTask(t, svc, project, "done already", bob)
	done.Status = store.StatusDone
	require.NoError(t, svc.Store.Tasks.Update(ctx, done))

	soon := seedTask(t, svc, project, "due soon", bob)
	soon.DueDate = dueIn(2)
	require.NoError(t, svc.Store.Tasks.Update(ctx, soon))

	late := seedTask(t, svc, project, "overdue", nil)
	pastDue := time.Now().AddDate(0, 0, -2)
	late.DueDate = &pastDue
	require.NoError(t, svc.Store.Tasks.Update(ctx, late))

	stats, err := svc.Projects.Stats(userContext(owner), project.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalTasks)
	assert.Equal(t, 1, stats.ByStatus[store.StatusDone])
	assert.Equal(t, 2, stats.ByStatus[store.StatusTodo])
	assert.Equal(t, 1, stats.DueSoon)
	assert.Equal(t, 1, stats.Overdue)
	require.Len(t, stats.MemberRanking, 1)
	assert.Equal(t, "bob", stats.MemberRanking[0].Username)
	assert.Equal(t, 1, stats.MemberRanking[0].DoneCount)

	_, err = svc.Projects.Stats(userContext(outsider), project.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
