package authz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/samber/lo"

	"github.com/bk-med/kanban/internal/pkg/xcache"
)

// fakeSource is an in-memory MembershipSource for engine and resolver tests.
type fakeSource struct {
	owners  map[int]int
	members map[int][]int

	ownerCalls  int
	memberCalls int
}

func (f *fakeSource) OwnerID(ctx context.Context, projectID int) (int, error) {
	f.ownerCalls++

	owner, ok := f.owners[projectID]
	if !ok {
		return 0, fmt.Errorf("project %d not found", projectID)
	}

	return owner, nil
}

func (f *fakeSource) IsMember(ctx context.Context, projectID, userID int) (bool, error) {
	f.memberCalls++
	return lo.Contains(f.members[projectID], userID), nil
}

func (f *fakeSource) VisibleProjectIDs(ctx context.Context, userID int) ([]int, error) {
	seen := map[int]bool{}

	for projectID, owner := range f.owners {
		if owner == userID {
			seen[projectID] = true
		}
	}

	for projectID, members := range f.members {
		if lo.Contains(members, userID) {
			seen[projectID] = true
		}
	}

	ids := lo.Keys(seen)
	sort.Ints(ids)

	return ids, nil
}

type testResource struct {
	kind    Kind
	project int
}

func (r testResource) ResourceKind() Kind {
	return r.kind
}

func (r testResource) ResourceProject() int {
	return r.project
}

type testTask struct {
	testResource
	assignee *int
}

func (r testTask) AssigneeUserID() (int, bool) {
	if r.assignee == nil {
		return 0, false
	}

	return *r.assignee, true
}

type testComment struct {
	testResource
	author int
}

func (r testComment) AuthorUserID() int {
	return r.author
}

// newTestEngine builds an engine over project 1 owned by user 1 with user 2
// on the roster. Users 3+ have no relationship.
func newTestEngine() (*Engine, *fakeSource) {
	source := &fakeSource{
		owners:  map[int]int{1: 1},
		members: map[int][]int{1: {2}},
	}

	cache := xcache.NewFromConfig[Relationship](xcache.Config{Mode: xcache.ModeMemory})

	return NewEngine(NewResolver(source, cache, 0)), source
}

func TestEngineDecide(t *testing.T) {
	engine, _ := newTestEngine()

	owner := func() context.Context { return NewUserContext(context.Background(), 1, false) }
	member := func() context.Context { return NewUserContext(context.Background(), 2, false) }
	outsider := func() context.Context { return NewUserContext(context.Background(), 3, false) }
	admin := func() context.Context { return NewUserContext(context.Background(), 99, true) }
	system := func() context.Context { return NewSystemContext(context.Background()) }
	anonymous := func() context.Context { return context.Background() }

	project := testResource{kind: KindProject, project: 1}
	task := testTask{testResource: testResource{kind: KindTask, project: 1}}
	assignedToOutsider := testTask{testResource: testResource{kind: KindTask, project: 1}, assignee: lo.ToPtr(3)}
	ownComment := testComment{testResource: testResource{kind: KindComment, project: 1}, author: 3}
	memberComment := testComment{testResource: testResource{kind: KindComment, project: 1}, author: 2}
	activityLog := testResource{kind: KindActivityLog, project: 1}

	tests := []struct {
		name     string
		ctx      func() context.Context
		action   Action
		resource Resource
		want     Decision
	}{
		{"owner reads project", owner, ActionRead, project, Allow},
		{"member reads project", member, ActionRead, project, Allow},
		{"outsider reads project", outsider, ActionRead, project, Deny},
		{"admin reads project", admin, ActionRead, project, Allow},
		{"system reads project", system, ActionRead, project, Allow},
		{"anonymous reads project", anonymous, ActionRead, project, Deny},

		{"owner writes project", owner, ActionWrite, project, Allow},
		{"member writes project", member, ActionWrite, project, Deny},
		{"outsider writes project", outsider, ActionWrite, project, Deny},

		{"owner manages roster", owner, ActionManage, project, Allow},
		{"member manages roster", member, ActionManage, project, Deny},
		{"admin manages roster", admin, ActionManage, project, Allow},

		{"member writes task", member, ActionWrite, task, Allow},
		{"owner writes task", owner, ActionWrite, task, Allow},
		{"outsider writes task", outsider, ActionWrite, task, Deny},
		{"assignee writes task without membership", outsider, ActionWrite, assignedToOutsider, Allow},
		{"assignee reads task without membership", outsider, ActionRead, assignedToOutsider, Deny},

		{"author edits own comment without membership", outsider, ActionWrite, ownComment, Allow},
		{"member edits another's comment", member, ActionWrite, memberComment, Allow},
		{"owner edits another's comment", owner, ActionWrite, memberComment, Allow},
		{"outsider edits another's comment", outsider, ActionWrite, memberComment, Deny},

		{"member reads activity log", member, ActionRead, activityLog, Allow},
		{"owner writes activity log", owner, ActionWrite, activityLog, Deny},
		{"member writes activity log", member, ActionWrite, activityLog, Deny},
		{"admin writes activity log", admin, ActionWrite, activityLog, Allow},
		{"system writes activity log", system, ActionWrite, activityLog, Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Decide(tt.ctx(), tt.action, tt.resource)
			if err != nil {
				t.Fatalf("Decide failed: %v", err)
			}

			if got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngineDecide_UnassignmentRevokesWrite(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := NewUserContext(context.Background(), 3, false)

	assigned := testTask{testResource: testResource{kind: KindTask, project: 1}, assignee: lo.ToPtr(3)}

	got, err := engine.Decide(ctx, ActionWrite, assigned)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if got != Allow {
		t.Fatal("assignee should be allowed to write")
	}

	unassigned := testTask{testResource: testResource{kind: KindTask, project: 1}}

	got, err = engine.Decide(ctx, ActionWrite, unassigned)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if got != Deny {
		t.Error("write should be denied once the task is unassigned")
	}
}

func TestEngineRequire(t *testing.T) {
	engine, _ := newTestEngine()

	project := testResource{kind: KindProject, project: 1}

	if err := engine.Require(NewUserContext(context.Background(), 1, false), ActionWrite, project); err != nil {
		t.Errorf("Require failed for owner: %v", err)
	}

	err := engine.Require(NewUserContext(context.Background(), 3, false), ActionWrite, project)
	if err == nil {
		t.Fatal("Require should fail for outsider")
	}

	if !errors.Is(err, ErrDenied) {
		t.Errorf("error should wrap ErrDenied, got %v", err)
	}

	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("error should be a DeniedError, got %T", err)
	}

	if denied.Action != ActionWrite || denied.Kind != KindProject {
		t.Errorf("DeniedError = %+v, want write on project", denied)
	}
}

func TestEngineDecide_ResolutionErrorPropagates(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := NewUserContext(context.Background(), 1, false)

	missing := testResource{kind: KindProject, project: 404}

	_, err := engine.Decide(ctx, ActionRead, missing)
	if err == nil {
		t.Error("Decide should propagate resolution errors")
	}
}
