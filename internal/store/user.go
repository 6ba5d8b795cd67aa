package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UserStore persists user accounts.
type UserStore struct {
	db *db
}

const userColumns = "id, username, email, password, first_name, last_name, is_admin, is_active, created_at, last_login"

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var (
		u         User
		lastLogin sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Password,
		&u.FirstName, &u.LastName, &u.IsAdmin, &u.IsActive,
		&u.CreatedAt, &lastLogin,
	)
	if err != nil {
		return nil, err
	}

	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}

	return &u, nil
}

// Create inserts the user and fills in ID and CreatedAt. Usernames are
// unique; a taken username yields ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, user *User) error {
	taken, err := s.usernameTaken(ctx, user.Username, 0)
	if err != nil {
		return err
	}

	if taken {
		return fmt.Errorf("username %q: %w", user.Username, ErrDuplicate)
	}

	user.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	id, err := s.db.insert(ctx,
		`INSERT INTO users (username, email, password, first_name, last_name, is_admin, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.Password,
		user.FirstName, user.LastName, user.IsAdmin, user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	user.ID = id

	return nil
}

func (s *UserStore) usernameTaken(ctx context.Context, username string, excludeID int) (bool, error) {
	var count int

	err := s.db.queryRow(ctx,
		"SELECT COUNT(*) FROM users WHERE username = ? AND id <> ?",
		username, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}

	return count > 0, nil
}

// Get returns the user by id.
func (s *UserStore) Get(ctx context.Context, id int) (*User, error) {
	user, err := scanUser(s.db.queryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// GetByUsername returns the user by username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	user, err := scanUser(s.db.queryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ?", username,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	return user, nil
}

// List returns all users ordered by id.
func (s *UserStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.query(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		users = append(users, user)
	}

	return users, rows.Err()
}

// Update saves the mutable user fields.
func (s *UserStore) Update(ctx context.Context, user *User) error {
	taken, err := s.usernameTaken(ctx, user.Username, user.ID)
	if err != nil {
		return err
	}

	if taken {
		return fmt.Errorf("username %q: %w", user.Username, ErrDuplicate)
	}

	res, err := s.db.exec(ctx,
		`UPDATE users
		 SET username = ?, email = ?, password = ?, first_name = ?, last_name = ?, is_admin = ?, is_active = ?
		 WHERE id = ?`,
		user.Username, user.Email, user.Password,
		user.FirstName, user.LastName, user.IsAdmin, user.IsActive,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return requireAffected(res, "user", user.ID)
}

// UpdateLastLogin records a successful authentication.
func (s *UserStore) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	_, err := s.db.exec(ctx, "UPDATE users SET last_login = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}

	return nil
}

// Delete removes the user. Owned projects cascade away; the assignee and
// audit actor references on surviving rows become null.
func (s *UserStore) Delete(ctx context.Context, id int) error {
	// The FKs declare SET NULL; clear explicitly so the result does not
	// depend on per-connection pragma state.
	if _, err := s.db.exec(ctx, "UPDATE tasks SET assignee_id = NULL WHERE assignee_id = ?", id); err != nil {
		return fmt.Errorf("clear assignee: %w", err)
	}

	if _, err := s.db.exec(ctx, "UPDATE activity_logs SET user_id = NULL WHERE user_id = ?", id); err != nil {
		return fmt.Errorf("clear audit actor: %w", err)
	}

	res, err := s.db.exec(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return requireAffected(res, "user", id)
}

func requireAffected(res sql.Result, entity string, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}

	return nil
}
