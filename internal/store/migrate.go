package store

import (
	"context"
	"fmt"
)

// Migrate applies the schema. Every statement is idempotent, so running it
// on every startup is safe.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.db.dialect) {
		if _, err := s.db.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	return nil
}

// schemaStatements renders the DDL for the dialect. MySQL has no
// CREATE INDEX IF NOT EXISTS, so its indexes are declared inline.
func schemaStatements(dialect Dialect) []string {
	var (
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
		ts = "TIMESTAMP"
	)

	switch dialect {
	case DialectPostgres:
		pk = "SERIAL PRIMARY KEY"
		ts = "TIMESTAMPTZ"
	case DialectMySQL:
		pk = "INTEGER PRIMARY KEY AUTO_INCREMENT"
		ts = "DATETIME"
	case DialectSQLite:
	}

	inline := func(def string) string {
		if dialect == DialectMySQL {
			return ",\n\t" + def
		}

		return ""
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
	id %s,
	username VARCHAR(150) NOT NULL UNIQUE,
	email VARCHAR(254) NOT NULL,
	password VARCHAR(128) NOT NULL,
	first_name VARCHAR(150) NOT NULL,
	last_name VARCHAR(150) NOT NULL,
	is_admin BOOLEAN NOT NULL,
	is_active BOOLEAN NOT NULL,
	created_at %s NOT NULL,
	last_login %s NULL
)`, pk, ts, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS projects (
	id %s,
	name VARCHAR(255) NOT NULL,
	description TEXT NOT NULL,
	owner_id INTEGER NOT NULL,
	created_at %s NOT NULL,
	FOREIGN KEY (owner_id) REFERENCES users (id) ON DELETE CASCADE%s
)`, pk, ts, inline("INDEX idx_projects_owner (owner_id)")),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS project_members (
	project_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	PRIMARY KEY (project_id, user_id),
	FOREIGN KEY (project_id) REFERENCES projects (id) ON DELETE CASCADE,
	FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE%s
)`, inline("INDEX idx_project_members_user (user_id)")),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tasks (
	id %s,
	project_id INTEGER NOT NULL,
	title VARCHAR(255) NOT NULL,
	description TEXT NOT NULL,
	status VARCHAR(20) NOT NULL,
	priority VARCHAR(10) NOT NULL,
	assignee_id INTEGER NULL,
	due_date %s NULL,
	created_at %s NOT NULL,
	updated_at %s NOT NULL,
	FOREIGN KEY (project_id) REFERENCES projects (id) ON DELETE CASCADE,
	FOREIGN KEY (assignee_id) REFERENCES users (id) ON DELETE SET NULL%s
)`, pk, ts, ts, ts, inline("INDEX idx_tasks_project (project_id),\n\tINDEX idx_tasks_status (status),\n\tINDEX idx_tasks_due (due_date),\n\tINDEX idx_tasks_assignee (assignee_id)")),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS comments (
	id %s,
	task_id INTEGER NOT NULL,
	author_id INTEGER NOT NULL,
	content TEXT NOT NULL,
	created_at %s NOT NULL,
	FOREIGN KEY (task_id) REFERENCES tasks (id) ON DELETE CASCADE,
	FOREIGN KEY (author_id) REFERENCES users (id) ON DELETE CASCADE%s
)`, pk, ts, inline("INDEX idx_comments_task (task_id)")),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS activity_logs (
	id %s,
	task_id INTEGER NOT NULL,
	user_id INTEGER NULL,
	action VARCHAR(255) NOT NULL,
	created_at %s NOT NULL,
	FOREIGN KEY (task_id) REFERENCES tasks (id) ON DELETE CASCADE,
	FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE SET NULL%s
)`, pk, ts, inline("INDEX idx_activity_logs_task (task_id)")),
	}

	if dialect != DialectMySQL {
		stmts = append(stmts,
			"CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects (owner_id)",
			"CREATE INDEX IF NOT EXISTS idx_project_members_user ON project_members (user_id)",
			"CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks (project_id)",
			"CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status)",
			"CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks (due_date)",
			"CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks (assignee_id)",
			"CREATE INDEX IF NOT EXISTS idx_comments_task ON comments (task_id)",
			"CREATE INDEX IF NOT EXISTS idx_activity_logs_task ON activity_logs (task_id)",
		)
	}

	return stmts
}
