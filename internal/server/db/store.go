package db

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/bk-med/kanban/internal/store"

	_ "github.com/bk-med/kanban/internal/pkg/sqlite"
)

// NewStore opens the configured database and applies the idempotent schema
// migration before anything else can touch the handle.
func NewStore(cfg store.Config) *store.Store {
	st, err := store.Open(cfg)
	if err != nil {
		panic(fmt.Errorf("failed to open database: %w", err))
	}

	if err := st.Migrate(context.Background()); err != nil {
		panic(fmt.Errorf("failed to migrate database: %w", err))
	}

	return st
}
