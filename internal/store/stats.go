package store

import (
	"context"
	"fmt"
	"time"

	"github.com/bk-med/kanban/internal/pkg/xtime"
)

// ProjectStats aggregates the task workload of one project.
type ProjectStats struct {
	TotalTasks int            `json:"total_tasks"`
	ByStatus   map[Status]int `json:"by_status"`
	// DueSoon counts unfinished tasks due within the next seven days.
	DueSoon int `json:"due_soon"`
	// Overdue counts unfinished tasks whose due date has passed.
	Overdue int `json:"overdue"`
	// MemberRanking orders assignees by completed tasks.
	MemberRanking []MemberTaskCount `json:"member_ranking"`
}

// MemberTaskCount is one member ranking row.
type MemberTaskCount struct {
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	DoneCount int    `json:"done_count"`
}

// ProjectStats computes the aggregate counters for the project as of now.
func (s *TaskStore) ProjectStats(ctx context.Context, projectID int, now time.Time) (*ProjectStats, error) {
	stats := &ProjectStats{
		ByStatus: map[Status]int{
			StatusTodo:       0,
			StatusInProgress: 0,
			StatusDone:       0,
		},
	}

	rows, err := s.db.query(ctx,
		"SELECT status, COUNT(*) FROM tasks WHERE project_id = ? GROUP BY status",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status Status
			count  int
		)

		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}

		stats.ByStatus[status] = count
		stats.TotalTasks += count
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	today := xtime.DayStart(now)
	weekOut := today.AddDate(0, 0, 7)

	err = s.db.queryRow(ctx,
		`SELECT COUNT(*) FROM tasks
		 WHERE project_id = ? AND due_date IS NOT NULL
		   AND due_date >= ? AND due_date <= ?
		   AND status IN (?, ?)`,
		projectID, today, weekOut, StatusTodo, StatusInProgress,
	).Scan(&stats.DueSoon)
	if err != nil {
		return nil, fmt.Errorf("due soon count: %w", err)
	}

	err = s.db.queryRow(ctx,
		`SELECT COUNT(*) FROM tasks
		 WHERE project_id = ? AND due_date IS NOT NULL
		   AND due_date < ? AND status <> ?`,
		projectID, today, StatusDone,
	).Scan(&stats.Overdue)
	if err != nil {
		return nil, fmt.Errorf("overdue count: %w", err)
	}

	ranking, err := s.db.query(ctx,
		`SELECT u.id, u.username, COUNT(*) AS done
		 FROM tasks t
		 JOIN users u ON u.id = t.assignee_id
		 WHERE t.project_id = ? AND t.status = ?
		 GROUP BY u.id, u.username
		 ORDER BY done DESC, u.username`,
		projectID, StatusDone,
	)
	if err != nil {
		return nil, fmt.Errorf("member ranking: %w", err)
	}
	defer ranking.Close()

	for ranking.Next() {
		var row MemberTaskCount
		if err := ranking.Scan(&row.UserID, &row.Username, &row.DoneCount); err != nil {
			return nil, err
		}

		stats.MemberRanking = append(stats.MemberRanking, row)
	}

	return stats, ranking.Err()
}
