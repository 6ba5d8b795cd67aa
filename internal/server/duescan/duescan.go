// Package duescan reminds assignees about tasks approaching their due date.
package duescan

import (
	"context"
	"fmt"
	"time"

	"github.com/zhenzou/executors"
	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/log"
	"github.com/bk-med/kanban/internal/notify"
	"github.com/bk-med/kanban/internal/pkg/xcache"
	"github.com/bk-med/kanban/internal/pkg/xtime"
	"github.com/bk-med/kanban/internal/store"
)

// defaultWindow is how far ahead of the due date a reminder fires.
const defaultWindow = 7 * 24 * time.Hour

// markerTTL keeps the dedup markers alive across repeated scans on the
// same day.
const markerTTL = 24 * time.Hour

type Config struct {
	CRON string `json:"cron" yaml:"cron" conf:"cron" validate:"required"`

	// Window overrides how far ahead the scan looks.
	Window time.Duration `json:"window" yaml:"window" conf:"window"`
}

// Worker scans for assigned, unfinished tasks due inside the window and
// emits DUE_SOON notifications. One reminder per task and day.
type Worker struct {
	Store      *store.Store
	Dispatcher *notify.Dispatcher
	Executor   executors.ScheduledExecutor
	Config     Config
	CancelFunc context.CancelFunc

	sent xcache.Cache[bool]
}

type Params struct {
	fx.In

	Config      Config
	CacheConfig xcache.Config
	Store       *store.Store
	Dispatcher  *notify.Dispatcher
}

func NewWorker(params Params) *Worker {
	return &Worker{
		Store:      params.Store,
		Dispatcher: params.Dispatcher,
		Executor:   executors.NewPoolScheduleExecutor(executors.WithMaxConcurrent(1)),
		Config:     params.Config,
		sent:       xcache.NewFromConfig[bool](params.CacheConfig),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	cancelFunc, err := w.Executor.ScheduleFuncAtCronRate(
		w.runScanWithSystemContext,
		executors.CRONRule{Expr: w.Config.CRON},
	)
	if err != nil {
		return err
	}

	w.CancelFunc = cancelFunc

	log.Info(ctx, "due-soon worker started", log.String("cron", w.Config.CRON))

	return nil
}

func (w *Worker) Stop(ctx context.Context) error {
	if w.CancelFunc != nil {
		w.CancelFunc()
	}

	return w.Executor.Shutdown(ctx)
}

// runScan executes one pass over the due-soon window.
func (w *Worker) runScan(ctx context.Context) {
	window := w.Config.Window
	if window <= 0 {
		window = defaultWindow
	}

	today := xtime.Today()

	tasks, err := w.Store.Tasks.DueSoon(ctx, today, today.Add(window))
	if err != nil {
		log.Error(ctx, "due-soon query failed", log.Cause(err))
		return
	}

	if len(tasks) == 0 {
		log.Debug(ctx, "no tasks due soon")
		return
	}

	var (
		events   []notify.Event
		projects = make(map[int]*store.Project)
	)

	for _, task := range tasks {
		marker := fmt.Sprintf("duescan:%d:%s", task.ID, today.Format("2006-01-02"))
		if _, err := w.sent.Get(ctx, marker); err == nil {
			// Already reminded today.
			continue
		}

		event, err := w.buildEvent(ctx, task, projects)
		if err != nil {
			log.Warn(ctx, "skipping due-soon reminder",
				log.Int("task_id", task.ID),
				log.Cause(err),
			)

			continue
		}

		if err := w.sent.Set(ctx, marker, true, xcache.WithExpiration(markerTTL)); err != nil {
			log.Warn(ctx, "failed to mark due-soon reminder", log.Cause(err))
		}

		events = append(events, event)
	}

	w.Dispatcher.Dispatch(ctx, events)

	log.Info(ctx, "due-soon scan completed",
		log.Int("scanned", len(tasks)),
		log.Int("reminders", len(events)),
	)
}

func (w *Worker) buildEvent(ctx context.Context, task *store.Task, projects map[int]*store.Project) (notify.Event, error) {
	assignee, err := w.Store.Users.Get(ctx, *task.AssigneeID)
	if err != nil {
		return notify.Event{}, fmt.Errorf("failed to get assignee: %w", err)
	}

	project, ok := projects[task.ProjectID]
	if !ok {
		project, err = w.Store.Projects.Get(ctx, task.ProjectID)
		if err != nil {
			return notify.Event{}, fmt.Errorf("failed to get project: %w", err)
		}

		projects[task.ProjectID] = project
	}

	return notify.Event{
		Type:           notify.EventDueSoon,
		TaskID:         task.ID,
		TaskTitle:      task.Title,
		ProjectID:      project.ID,
		ProjectName:    project.Name,
		RecipientID:    assignee.ID,
		RecipientName:  assignee.Username,
		RecipientEmail: assignee.Email,
		Status:         string(task.Status),
		DueDate:        *task.DueDate,
	}, nil
}

// RunScanNow manually triggers the scan.
// This can be useful for testing or manual execution.
func (w *Worker) RunScanNow(ctx context.Context) error {
	w.runScan(ctx)
	return nil
}
