package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ProjectStore persists projects and the membership roster.
type ProjectStore struct {
	db *db
}

const projectColumns = "id, name, description, owner_id, created_at"

func scanProject(row interface{ Scan(...any) error }) (*Project, error) {
	var p Project

	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// Create inserts the project and puts the owner on the roster. The creator
// is both owner and member.
func (s *ProjectStore) Create(ctx context.Context, project *Project) error {
	project.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	id, err := s.db.insert(ctx,
		"INSERT INTO projects (name, description, owner_id, created_at) VALUES (?, ?, ?, ?)",
		project.Name, project.Description, project.OwnerID, project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	project.ID = id

	if err := s.AddMember(ctx, id, project.OwnerID); err != nil {
		return err
	}

	project.MemberIDs = []int{project.OwnerID}

	return nil
}

// Get returns the project by id, roster included.
func (s *ProjectStore) Get(ctx context.Context, id int) (*Project, error) {
	project, err := scanProject(s.db.queryRow(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	project.MemberIDs, err = s.MemberIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	return project, nil
}

// List returns the projects inside the scope, newest first.
func (s *ProjectStore) List(ctx context.Context, scope Scope) ([]*Project, error) {
	if scope.Empty() {
		return nil, nil
	}

	query := "SELECT " + projectColumns + " FROM projects"

	var args []any

	if cond, condArgs, ok := scope.where("id"); ok {
		query += " WHERE " + cond

		args = condArgs
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project

	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}

		projects = append(projects, project)
	}

	return projects, rows.Err()
}

// Update saves name, description and owner.
func (s *ProjectStore) Update(ctx context.Context, project *Project) error {
	res, err := s.db.exec(ctx,
		"UPDATE projects SET name = ?, description = ?, owner_id = ? WHERE id = ?",
		project.Name, project.Description, project.OwnerID, project.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}

	return requireAffected(res, "project", project.ID)
}

// Delete removes the project. Tasks, comments and audit entries cascade.
func (s *ProjectStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.exec(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	return requireAffected(res, "project", id)
}

// AddMember puts the user on the roster. Duplicate adds yield ErrDuplicate.
func (s *ProjectStore) AddMember(ctx context.Context, projectID, userID int) error {
	member, err := s.IsMember(ctx, projectID, userID)
	if err != nil {
		return err
	}

	if member {
		return fmt.Errorf("user %d in project %d: %w", userID, projectID, ErrDuplicate)
	}

	_, err = s.db.exec(ctx,
		"INSERT INTO project_members (project_id, user_id) VALUES (?, ?)",
		projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}

	return nil
}

// RemoveMember takes the user off the roster.
func (s *ProjectStore) RemoveMember(ctx context.Context, projectID, userID int) error {
	res, err := s.db.exec(ctx,
		"DELETE FROM project_members WHERE project_id = ? AND user_id = ?",
		projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	return requireAffected(res, "member", userID)
}

// IsMember reports whether the user is on the roster.
func (s *ProjectStore) IsMember(ctx context.Context, projectID, userID int) (bool, error) {
	var count int

	err := s.db.queryRow(ctx,
		"SELECT COUNT(*) FROM project_members WHERE project_id = ? AND user_id = ?",
		projectID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}

	return count > 0, nil
}

// OwnerID returns the owning user of the project.
func (s *ProjectStore) OwnerID(ctx context.Context, projectID int) (int, error) {
	var ownerID int

	err := s.db.queryRow(ctx, "SELECT owner_id FROM projects WHERE id = ?", projectID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("project %d: %w", projectID, ErrNotFound)
	}

	if err != nil {
		return 0, fmt.Errorf("get project owner: %w", err)
	}

	return ownerID, nil
}

// MemberIDs returns the roster ordered by user id.
func (s *ProjectStore) MemberIDs(ctx context.Context, projectID int) ([]int, error) {
	rows, err := s.db.query(ctx,
		"SELECT user_id FROM project_members WHERE project_id = ? ORDER BY user_id",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var ids []int

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Members returns the roster users ordered by user id.
func (s *ProjectStore) Members(ctx context.Context, projectID int) ([]*User, error) {
	rows, err := s.db.query(ctx,
		`SELECT `+prefixedColumns("u", userColumns)+`
		 FROM users u
		 JOIN project_members pm ON pm.user_id = u.id
		 WHERE pm.project_id = ?
		 ORDER BY u.id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var users []*User

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}

		users = append(users, user)
	}

	return users, rows.Err()
}

// VisibleProjectIDs returns the projects the user owns or is a member of,
// the push-down source for read visibility.
func (s *ProjectStore) VisibleProjectIDs(ctx context.Context, userID int) ([]int, error) {
	rows, err := s.db.query(ctx,
		`SELECT id FROM projects WHERE owner_id = ?
		 UNION
		 SELECT project_id FROM project_members WHERE user_id = ?
		 ORDER BY 1`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("visible projects: %w", err)
	}
	defer rows.Close()

	var ids []int

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}
