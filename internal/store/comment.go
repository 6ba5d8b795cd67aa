package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CommentStore persists task comments.
type CommentStore struct {
	db *db
}

// Comment queries join the task so every loaded comment knows the project
// it reaches.
const commentSelect = `SELECT c.id, c.task_id, c.author_id, c.content, c.created_at, t.project_id
	FROM comments c
	JOIN tasks t ON t.id = c.task_id`

func scanComment(row interface{ Scan(...any) error }) (*Comment, error) {
	var c Comment

	err := row.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.ProjectID)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// Create inserts the comment and fills in ID, CreatedAt and ProjectID.
func (s *CommentStore) Create(ctx context.Context, comment *Comment) error {
	comment.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	id, err := s.db.insert(ctx,
		"INSERT INTO comments (task_id, author_id, content, created_at) VALUES (?, ?, ?, ?)",
		comment.TaskID, comment.AuthorID, comment.Content, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	comment.ID = id

	err = s.db.queryRow(ctx, "SELECT project_id FROM tasks WHERE id = ?", comment.TaskID).
		Scan(&comment.ProjectID)
	if err != nil {
		return fmt.Errorf("resolve comment project: %w", err)
	}

	return nil
}

// Get returns the comment by id.
func (s *CommentStore) Get(ctx context.Context, id int) (*Comment, error) {
	comment, err := scanComment(s.db.queryRow(ctx, commentSelect+" WHERE c.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}

	return comment, nil
}

// ListByTask returns the task's comments, oldest first.
func (s *CommentStore) ListByTask(ctx context.Context, taskID int) ([]*Comment, error) {
	rows, err := s.db.query(ctx, commentSelect+" WHERE c.task_id = ? ORDER BY c.created_at, c.id", taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []*Comment

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}

		comments = append(comments, comment)
	}

	return comments, rows.Err()
}

// Update saves the comment content.
func (s *CommentStore) Update(ctx context.Context, comment *Comment) error {
	res, err := s.db.exec(ctx,
		"UPDATE comments SET content = ? WHERE id = ?",
		comment.Content, comment.ID,
	)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}

	return requireAffected(res, "comment", comment.ID)
}

// Delete removes the comment.
func (s *CommentStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.exec(ctx, "DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	return requireAffected(res, "comment", id)
}
