package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ActivityLogStore persists the append-only audit trail. There is no update
// or delete: entries only ever accumulate, and rows disappear solely through
// the cascade when their task goes away.
type ActivityLogStore struct {
	db *db
}

const activityLogSelect = `SELECT l.id, l.task_id, l.user_id, l.action, l.created_at, t.project_id
	FROM activity_logs l
	JOIN tasks t ON t.id = l.task_id`

func scanActivityLog(row interface{ Scan(...any) error }) (*ActivityLog, error) {
	var (
		l      ActivityLog
		userID sql.NullInt64
	)

	err := row.Scan(&l.ID, &l.TaskID, &userID, &l.Action, &l.CreatedAt, &l.ProjectID)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		id := int(userID.Int64)
		l.UserID = &id
	}

	return &l, nil
}

// Append inserts one audit entry and fills in ID, CreatedAt and ProjectID.
func (s *ActivityLogStore) Append(ctx context.Context, entry *ActivityLog) error {
	entry.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	id, err := s.db.insert(ctx,
		"INSERT INTO activity_logs (task_id, user_id, action, created_at) VALUES (?, ?, ?, ?)",
		entry.TaskID, entry.UserID, entry.Action, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}

	entry.ID = id

	err = s.db.queryRow(ctx, "SELECT project_id FROM tasks WHERE id = ?", entry.TaskID).
		Scan(&entry.ProjectID)
	if err != nil {
		return fmt.Errorf("resolve activity project: %w", err)
	}

	return nil
}

// Get returns the audit entry by id.
func (s *ActivityLogStore) Get(ctx context.Context, id int) (*ActivityLog, error) {
	entry, err := scanActivityLog(s.db.queryRow(ctx, activityLogSelect+" WHERE l.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("activity %d: %w", id, ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}

	return entry, nil
}

// ListByTask returns the task's audit trail, oldest first.
func (s *ActivityLogStore) ListByTask(ctx context.Context, taskID int) ([]*ActivityLog, error) {
	rows, err := s.db.query(ctx, activityLogSelect+" WHERE l.task_id = ? ORDER BY l.created_at, l.id", taskID)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	return collectActivityLogs(rows)
}

// List returns the audit entries inside the scope, newest first.
func (s *ActivityLogStore) List(ctx context.Context, scope Scope) ([]*ActivityLog, error) {
	if scope.Empty() {
		return nil, nil
	}

	var (
		conds []string
		args  []any
	)

	if cond, condArgs, ok := scope.where("t.project_id"); ok {
		conds = append(conds, cond)
		args = append(args, condArgs...)
	}

	query := activityLogSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY l.created_at DESC, l.id DESC"

	rows, err := s.db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	return collectActivityLogs(rows)
}

func collectActivityLogs(rows *sql.Rows) ([]*ActivityLog, error) {
	var entries []*ActivityLog

	for rows.Next() {
		entry, err := scanActivityLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
