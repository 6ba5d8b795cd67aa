package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bk-med/kanban/internal/pkg/xtime"
)

// TaskStore persists tasks.
type TaskStore struct {
	db *db
}

const taskColumns = "id, project_id, title, description, status, priority, assignee_id, due_date, created_at, updated_at"

func scanTask(row interface{ Scan(...any) error }) (*Task, error) {
	var (
		t        Task
		assignee sql.NullInt64
		due      sql.NullTime
	)

	err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description,
		&t.Status, &t.Priority, &assignee, &due,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assignee.Valid {
		id := int(assignee.Int64)
		t.AssigneeID = &id
	}

	if due.Valid {
		t.DueDate = &due.Time
	}

	return &t, nil
}

// Create inserts the task and fills in ID and the timestamps.
func (s *TaskStore) Create(ctx context.Context, task *Task) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	task.CreatedAt = now
	task.UpdatedAt = now

	id, err := s.db.insert(ctx,
		`INSERT INTO tasks (project_id, title, description, status, priority, assignee_id, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ProjectID, task.Title, task.Description, task.Status, task.Priority,
		task.AssigneeID, normalizeDue(task.DueDate), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	task.ID = id

	return nil
}

// Get returns the task by id.
func (s *TaskStore) Get(ctx context.Context, id int) (*Task, error) {
	task, err := scanTask(s.db.queryRow(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	return task, nil
}

// TaskFilter narrows List results. Zero fields do not filter.
type TaskFilter struct {
	ProjectID  *int
	Status     *Status
	Priority   *Priority
	AssigneeID *int
	// DueBefore and DueAfter bound the due date inclusively.
	DueBefore *time.Time
	DueAfter  *time.Time
	// Search matches title or description, case insensitive.
	Search string
	// Ordering is one of due_date, priority, created_at, with an optional
	// leading - for descending. Unknown values fall back to the default.
	Ordering string
}

// List returns the tasks inside the scope matching the filter.
func (s *TaskStore) List(ctx context.Context, scope Scope, filter TaskFilter) ([]*Task, error) {
	if scope.Empty() {
		return nil, nil
	}

	var (
		conds []string
		args  []any
	)

	if cond, condArgs, ok := scope.where("project_id"); ok {
		conds = append(conds, cond)
		args = append(args, condArgs...)
	}

	if filter.ProjectID != nil {
		conds = append(conds, "project_id = ?")
		args = append(args, *filter.ProjectID)
	}

	if filter.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, *filter.Status)
	}

	if filter.Priority != nil {
		conds = append(conds, "priority = ?")
		args = append(args, *filter.Priority)
	}

	if filter.AssigneeID != nil {
		conds = append(conds, "assignee_id = ?")
		args = append(args, *filter.AssigneeID)
	}

	if filter.DueBefore != nil {
		conds = append(conds, "due_date IS NOT NULL AND due_date <= ?")
		args = append(args, (*filter.DueBefore).UTC())
	}

	if filter.DueAfter != nil {
		conds = append(conds, "due_date IS NOT NULL AND due_date >= ?")
		args = append(args, (*filter.DueAfter).UTC())
	}

	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"

		conds = append(conds, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, pattern, pattern)
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY " + orderClause(filter.Ordering)

	rows, err := s.db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}

		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// priorityRank orders priorities by urgency instead of alphabetically.
const priorityRank = "CASE priority WHEN 'LOW' THEN 0 WHEN 'MEDIUM' THEN 1 WHEN 'HIGH' THEN 2 END"

func orderClause(ordering string) string {
	desc := strings.HasPrefix(ordering, "-")
	column := strings.TrimPrefix(ordering, "-")

	dir := " ASC"
	if desc {
		dir = " DESC"
	}

	switch column {
	case "due_date", "created_at":
		return column + dir + ", id" + dir
	case "priority":
		return priorityRank + dir + ", id" + dir
	default:
		return "created_at DESC, id DESC"
	}
}

// Update saves all mutable task fields and bumps updated_at.
func (s *TaskStore) Update(ctx context.Context, task *Task) error {
	task.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	res, err := s.db.exec(ctx,
		`UPDATE tasks
		 SET title = ?, description = ?, status = ?, priority = ?, assignee_id = ?, due_date = ?, updated_at = ?
		 WHERE id = ?`,
		task.Title, task.Description, task.Status, task.Priority,
		task.AssigneeID, normalizeDue(task.DueDate), task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	return requireAffected(res, "task", task.ID)
}

// Delete removes the task. Comments and audit entries cascade.
func (s *TaskStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.exec(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	return requireAffected(res, "task", id)
}

// DueSoon returns assigned, unfinished tasks due inside [from, to].
func (s *TaskStore) DueSoon(ctx context.Context, from, to time.Time) ([]*Task, error) {
	rows, err := s.db.query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE due_date IS NOT NULL AND due_date >= ? AND due_date <= ?
		   AND status IN (?, ?)
		   AND assignee_id IS NOT NULL
		 ORDER BY due_date, id`,
		from.UTC(), to.UTC(), StatusTodo, StatusInProgress,
	)
	if err != nil {
		return nil, fmt.Errorf("due soon tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}

		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// normalizeDue keeps due dates at date precision.
func normalizeDue(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}

	d := xtime.DayStart(*due)

	return &d
}
