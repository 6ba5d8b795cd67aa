// Package sqlite registers the cgo-free modernc sqlite driver under the
// name sqlite3 with foreign key enforcement switched on, which the cascade
// rules in the schema rely on.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"modernc.org/sqlite"
)

type sqliteDriver struct {
	*sqlite.Driver
}

func (d sqliteDriver) Open(name string) (driver.Conn, error) {
	conn, err := d.Driver.Open(name)
	if err != nil {
		return nil, err
	}

	execer, ok := conn.(driver.ExecerContext)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("sqlite: connection does not support ExecContext")
	}

	_, err = execer.ExecContext(context.Background(), "PRAGMA foreign_keys = ON;", nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}

	return conn, nil
}

//nolint:gochecknoinits // database/sql driver registration.
func init() {
	sql.Register("sqlite3", sqliteDriver{Driver: &sqlite.Driver{}})
}
