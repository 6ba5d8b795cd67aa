package biz

import (
	"context"
	"sync"

	"github.com/bk-med/kanban/internal/authz"
	"github.com/bk-med/kanban/internal/notify"
	"github.com/bk-med/kanban/internal/pkg/xcache"
	"github.com/bk-med/kanban/internal/store"
)

// CaptureNotifier records dispatched events synchronously so tests can
// assert on them without an executor.
type CaptureNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *CaptureNotifier) Dispatch(_ context.Context, events []notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = append(n.events, events...)
}

func (n *CaptureNotifier) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]notify.Event(nil), n.events...)
}

func (n *CaptureNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = nil
}

// TestServices wires the full service stack over the given store with an
// in-memory cache and a capturing notifier.
type TestServices struct {
	Store    *store.Store
	Engine   *authz.Engine
	Recorder *Recorder
	Auth     *AuthService
	Users    *UserService
	Projects *ProjectService
	Tasks    *TaskService
	Comments *CommentService
	Activity *ActivityLogService
	Notifier *CaptureNotifier
}

func NewServicesForTest(st *store.Store) *TestServices {
	cacheConfig := xcache.Config{Mode: xcache.ModeMemory}

	resolver := authz.NewResolver(st.Projects, xcache.NewFromConfig[authz.Relationship](cacheConfig), 0)
	engine := authz.NewEngine(resolver)
	recorder := NewRecorder(st)
	notifier := &CaptureNotifier{}

	users := NewUserService(UserServiceParams{
		CacheConfig: cacheConfig,
		Store:       st,
		Engine:      engine,
	})

	auth, err := NewAuthService(AuthServiceParams{
		Store:       st,
		Engine:      engine,
		UserService: users,
	})
	if err != nil {
		panic(err)
	}

	return &TestServices{
		Store:    st,
		Engine:   engine,
		Recorder: recorder,
		Auth:     auth,
		Users:    users,
		Projects: NewProjectService(ProjectServiceParams{Store: st, Engine: engine}),
		Tasks: NewTaskService(TaskServiceParams{
			Store:    st,
			Engine:   engine,
			Recorder: recorder,
			Notifier: notifier,
		}),
		Comments: NewCommentService(CommentServiceParams{Store: st, Engine: engine}),
		Activity: NewActivityLogService(ActivityLogServiceParams{Store: st, Engine: engine}),
		Notifier: notifier,
	}
}
