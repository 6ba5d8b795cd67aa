package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Config configures the database connection.
type Config struct {
	// Dialect selects the driver: postgres, mysql or sqlite.
	Dialect string `conf:"dialect" json:"dialect" yaml:"dialect"`
	// DSN is the driver specific connection string. The mysql DSN must set
	// parseTime=true so timestamps scan into time.Time.
	DSN   string `conf:"dsn" json:"dsn" yaml:"dsn"`
	Debug bool   `conf:"debug" json:"debug" yaml:"debug"`
}

// Store bundles the per-entity stores over one database handle.
type Store struct {
	db *db

	Users        *UserStore
	Projects     *ProjectStore
	Tasks        *TaskStore
	Comments     *CommentStore
	ActivityLogs *ActivityLogStore
}

// Open connects to the configured database. The caller is responsible for
// running Migrate before serving traffic.
func Open(cfg Config) (*Store, error) {
	var (
		sqlDB   *sql.DB
		dialect Dialect
		err     error
	)

	switch cfg.Dialect {
	case "postgres", "pgx", "pg", "postgresql":
		sqlDB, err = sql.Open("pgx", cfg.DSN)
		dialect = DialectPostgres
	case "sqlite3", "sqlite":
		sqlDB, err = sql.Open("sqlite3", cfg.DSN)
		dialect = DialectSQLite
	case "mysql", "tidb":
		sqlDB, err = sql.Open("mysql", cfg.DSN)
		dialect = DialectMySQL
	default:
		return nil, fmt.Errorf("invalid dialect: %s", cfg.Dialect)
	}

	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialect == DialectSQLite {
		// modernc sqlite serializes writes per connection; a single
		// connection avoids SQLITE_BUSY under concurrent transactions.
		sqlDB.SetMaxOpenConns(1)
	}

	return New(sqlDB, dialect, cfg.Debug), nil
}

// New wraps an existing database handle.
func New(sqlDB *sql.DB, dialect Dialect, debug bool) *Store {
	d := &db{sql: sqlDB, dialect: dialect, debug: debug}

	return &Store{
		db:           d,
		Users:        &UserStore{db: d},
		Projects:     &ProjectStore{db: d},
		Tasks:        &TaskStore{db: d},
		Comments:     &CommentStore{db: d},
		ActivityLogs: &ActivityLogStore{db: d},
	}
}

// Dialect returns the SQL flavor of the open database.
func (s *Store) Dialect() Dialect {
	return s.db.dialect
}

// BeginTx starts a transaction. Pair with NewTxContext so nested store
// calls join it.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.sql.BeginTx(ctx, nil)
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.sql.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.sql.Close()
}
