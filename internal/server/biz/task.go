package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/authz"
	"github.com/bk-med/kanban/internal/log"
	"github.com/bk-med/kanban/internal/notify"
	"github.com/bk-med/kanban/internal/store"
)

// Notifier receives the notification events derived from a committed task
// mutation. Delivery is the notifier's problem, never the mutation's.
type Notifier interface {
	Dispatch(ctx context.Context, events []notify.Event)
}

type TaskServiceParams struct {
	fx.In

	Store    *store.Store
	Engine   *authz.Engine
	Recorder *Recorder
	Notifier Notifier `optional:"true"`
}

type TaskService struct {
	*AbstractService

	recorder *Recorder
	notifier Notifier
}

func NewTaskService(params TaskServiceParams) *TaskService {
	return &TaskService{
		AbstractService: &AbstractService{
			store:  params.Store,
			engine: params.Engine,
		},
		recorder: params.Recorder,
		notifier: params.Notifier,
	}
}

// TaskDetail pairs a task with its expanded assignee, the shape the API
// returns.
type TaskDetail struct {
	Task     *store.Task
	Assignee *store.User
}

type CreateTaskInput struct {
	ProjectID   int
	Title       string
	Description string
	Status      store.Status
	Priority    store.Priority
	AssigneeID  *int
	DueDate     *time.Time
}

func (in CreateTaskInput) Validate() error {
	var f fieldErrors
	validateTaskFields(&f, in.Title, in.Status, in.Priority)

	return f.Err()
}

// UpdateTaskInput replaces the task's mutable fields. A nil assignee
// unassigns, a nil due date clears it.
type UpdateTaskInput struct {
	Title       string
	Description string
	Status      store.Status
	Priority    store.Priority
	AssigneeID  *int
	DueDate     *time.Time
}

func (in UpdateTaskInput) Validate() error {
	var f fieldErrors
	validateTaskFields(&f, in.Title, in.Status, in.Priority)

	return f.Err()
}

func validateTaskFields(f *fieldErrors, title string, status store.Status, priority store.Priority) {
	if strings.TrimSpace(title) == "" {
		f.Add("title", "is required")
	}

	if status != "" && !status.Valid() {
		f.Add("status", fmt.Sprintf("%q is not a valid status", status))
	}

	if priority != "" && !priority.Valid() {
		f.Add("priority", fmt.Sprintf("%q is not a valid priority", priority))
	}
}

func statusOrDefault(status store.Status) store.Status {
	if status == "" {
		return store.StatusTodo
	}

	return status
}

func priorityOrDefault(priority store.Priority) store.Priority {
	if priority == "" {
		return store.PriorityMedium
	}

	return priority
}

// CreateTask creates a task in the project. Creation needs project
// residency; the assignee is left out of the gate so assignment alone cannot
// smuggle a create into a foreign project.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*TaskDetail, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	project, err := s.store.Projects.Get(ctx, input.ProjectID)
	if err != nil {
		if store.NotFound(err) {
			return nil, notFound(authz.KindProject)
		}

		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if err := s.requireRead(ctx, project); err != nil {
		return nil, err
	}

	prospective := &store.Task{ProjectID: input.ProjectID}
	if err := s.require(ctx, authz.ActionWrite, prospective); err != nil {
		return nil, err
	}

	if err := s.checkAssignee(ctx, input.AssigneeID); err != nil {
		return nil, err
	}

	task := &store.Task{
		ProjectID:   input.ProjectID,
		Title:       input.Title,
		Description: input.Description,
		Status:      statusOrDefault(input.Status),
		Priority:    priorityOrDefault(input.Priority),
		AssigneeID:  input.AssigneeID,
		DueDate:     input.DueDate,
	}

	var events []notify.Event

	err = s.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.store.Tasks.Create(txCtx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		if err := s.recorder.TaskCreated(txCtx, actorID(ctx), task.ID); err != nil {
			return err
		}

		if task.AssigneeID != nil {
			assignee, err := s.store.Users.Get(txCtx, *task.AssigneeID)
			if err != nil {
				return fmt.Errorf("failed to get assignee: %w", err)
			}

			event, err := s.buildEvent(txCtx, notify.EventAssigned, task, assignee, "")
			if err != nil {
				return err
			}

			events = append(events, event)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, events)

	log.Info(ctx, "task created",
		log.Int("task_id", task.ID),
		log.Int("project_id", task.ProjectID),
	)

	return s.expand(ctx, task)
}

// GetTask returns the task when the caller can read it. An assignee who left
// the roster keeps write access but loses this one.
func (s *TaskService) GetTask(ctx context.Context, id int) (*TaskDetail, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireRead(ctx, task); err != nil {
		return nil, err
	}

	return s.expand(ctx, task)
}

// ListTasks returns the visible tasks matching the filter.
func (s *TaskService) ListTasks(ctx context.Context, filter store.TaskFilter) ([]*TaskDetail, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	scope, err := s.visibleScope(ctx)
	if err != nil {
		return nil, err
	}

	tasks, err := s.store.Tasks.List(ctx, scope, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return s.expandAll(ctx, tasks)
}

// ListProjectTasks returns one project's tasks matching the filter.
func (s *TaskService) ListProjectTasks(ctx context.Context, projectID int, filter store.TaskFilter) ([]*TaskDetail, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	project, err := s.store.Projects.Get(ctx, projectID)
	if err != nil {
		if store.NotFound(err) {
			return nil, notFound(authz.KindProject)
		}

		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if err := s.requireRead(ctx, project); err != nil {
		return nil, err
	}

	filter.ProjectID = &projectID

	tasks, err := s.store.Tasks.List(ctx, store.ScopeProjects(projectID), filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return s.expandAll(ctx, tasks)
}

// UpdateTask replaces the task's fields, records the audit entries for any
// status or assignment transition in the same transaction, and hands the
// derived notification events to the notifier after commit.
func (s *TaskService) UpdateTask(ctx context.Context, id int, input UpdateTaskInput) (*TaskDetail, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.require(ctx, authz.ActionWrite, task); err != nil {
		return nil, err
	}

	if err := s.checkAssignee(ctx, input.AssigneeID); err != nil {
		return nil, err
	}

	before := *task

	task.Title = input.Title
	task.Description = input.Description
	task.Status = statusOrDefault(input.Status)
	task.Priority = priorityOrDefault(input.Priority)
	task.AssigneeID = input.AssigneeID
	task.DueDate = input.DueDate

	var events []notify.Event

	err = s.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.store.Tasks.Update(txCtx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		transitions, err := s.recordTransitions(txCtx, &before, task)
		if err != nil {
			return err
		}

		events = transitions

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, events)

	return s.expand(ctx, task)
}

// DeleteTask removes the task and its trail. Deletion needs project
// residency; being the assignee is not enough.
func (s *TaskService) DeleteTask(ctx context.Context, id int) error {
	task, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	residency := *task
	residency.AssigneeID = nil

	if err := s.require(ctx, authz.ActionWrite, &residency); err != nil {
		return err
	}

	if err := s.store.Tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	log.Info(ctx, "task deleted", log.Int("task_id", id))

	return nil
}

// recordTransitions appends the audit entries for the status and assignment
// diffs between before and after, one entry per logical change, and derives
// the notification events. Must run inside the mutation's transaction.
func (s *TaskService) recordTransitions(ctx context.Context, before, after *store.Task) ([]notify.Event, error) {
	var events []notify.Event

	actor := actorID(ctx)

	if before.Status != after.Status {
		if err := s.recorder.StatusChanged(ctx, actor, after.ID, after.Status); err != nil {
			return nil, err
		}

		if after.AssigneeID != nil {
			recipient, err := s.store.Users.Get(ctx, *after.AssigneeID)
			if err != nil {
				return nil, fmt.Errorf("failed to get assignee: %w", err)
			}

			event, err := s.buildEvent(ctx, notify.EventStatusChanged, after, recipient, before.Status)
			if err != nil {
				return nil, err
			}

			events = append(events, event)
		}
	}

	switch {
	case after.AssigneeID != nil && (before.AssigneeID == nil || *before.AssigneeID != *after.AssigneeID):
		assignee, err := s.store.Users.Get(ctx, *after.AssigneeID)
		if err != nil {
			return nil, fmt.Errorf("failed to get assignee: %w", err)
		}

		if err := s.recorder.Assigned(ctx, actor, after.ID, assignee.Username); err != nil {
			return nil, err
		}

		event, err := s.buildEvent(ctx, notify.EventAssigned, after, assignee, "")
		if err != nil {
			return nil, err
		}

		events = append(events, event)

	case after.AssigneeID == nil && before.AssigneeID != nil:
		previous, err := s.store.Users.Get(ctx, *before.AssigneeID)
		if err != nil {
			return nil, fmt.Errorf("failed to get previous assignee: %w", err)
		}

		// Unassignment is logged but never notified.
		if err := s.recorder.Unassigned(ctx, actor, after.ID, previous.Username); err != nil {
			return nil, err
		}
	}

	return events, nil
}

func (s *TaskService) buildEvent(
	ctx context.Context,
	eventType notify.EventType,
	task *store.Task,
	recipient *store.User,
	oldStatus store.Status,
) (notify.Event, error) {
	project, err := s.store.Projects.Get(ctx, task.ProjectID)
	if err != nil {
		return notify.Event{}, fmt.Errorf("failed to get project: %w", err)
	}

	event := notify.Event{
		Type:           eventType,
		TaskID:         task.ID,
		TaskTitle:      task.Title,
		ProjectID:      project.ID,
		ProjectName:    project.Name,
		RecipientID:    recipient.ID,
		RecipientName:  recipient.Username,
		RecipientEmail: recipient.Email,
		ActorName:      actorName(ctx),
		OldStatus:      string(oldStatus),
		Status:         string(task.Status),
	}
	if task.DueDate != nil {
		event.DueDate = *task.DueDate
	}

	return event, nil
}

// checkAssignee rejects assignments to users that do not exist. Assignees
// are not required to be project members.
func (s *TaskService) checkAssignee(ctx context.Context, assigneeID *int) error {
	if assigneeID == nil {
		return nil
	}

	if _, err := s.store.Users.Get(ctx, *assigneeID); err != nil {
		if store.NotFound(err) {
			return fmt.Errorf("%w: assignee %d does not exist", ErrValidation, *assigneeID)
		}

		return fmt.Errorf("failed to get assignee: %w", err)
	}

	return nil
}

func (s *TaskService) dispatch(ctx context.Context, events []notify.Event) {
	if s.notifier == nil || len(events) == 0 {
		return
	}

	s.notifier.Dispatch(ctx, events)
}

func (s *TaskService) load(ctx context.Context, id int) (*store.Task, error) {
	task, err := s.store.Tasks.Get(ctx, id)
	if err != nil {
		if store.NotFound(err) {
			return nil, notFound(authz.KindTask)
		}

		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

func (s *TaskService) expand(ctx context.Context, task *store.Task) (*TaskDetail, error) {
	detail := &TaskDetail{Task: task}

	if task.AssigneeID != nil {
		assignee, err := s.store.Users.Get(ctx, *task.AssigneeID)
		if err != nil {
			return nil, fmt.Errorf("failed to get assignee: %w", err)
		}

		detail.Assignee = assignee
	}

	return detail, nil
}

func (s *TaskService) expandAll(ctx context.Context, tasks []*store.Task) ([]*TaskDetail, error) {
	details := make([]*TaskDetail, 0, len(tasks))

	for _, task := range tasks {
		detail, err := s.expand(ctx, task)
		if err != nil {
			return nil, err
		}

		details = append(details, detail)
	}

	return details, nil
}

func validateFilter(filter store.TaskFilter) error {
	var f fieldErrors
	if filter.Status != nil && !filter.Status.Valid() {
		f.Add("status", fmt.Sprintf("%q is not a valid status", *filter.Status))
	}

	if filter.Priority != nil && !filter.Priority.Valid() {
		f.Add("priority", fmt.Sprintf("%q is not a valid priority", *filter.Priority))
	}

	return f.Err()
}
