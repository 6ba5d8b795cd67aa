package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/bk-med/kanban/internal/log"
)

// Dialect identifies the SQL flavor of the open database.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// txKey is an unexported key type to prevent external forgery.
type txKey struct{}

// NewTxContext stores the transaction in the context. Store calls made with
// the returned context run inside the transaction.
func NewTxContext(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext retrieves the transaction from the context, if any.
func TxFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// db wraps the sql.DB with dialect aware helpers. All store queries are
// written with ? placeholders and rebound for postgres.
type db struct {
	sql     *sql.DB
	dialect Dialect
	debug   bool
}

func (d *db) conn(ctx context.Context) interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
} {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}

	return d.sql
}

func (d *db) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	query = d.rebind(query)
	d.trace(ctx, query, args)

	return d.conn(ctx).ExecContext(ctx, query, args...)
}

func (d *db) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	query = d.rebind(query)
	d.trace(ctx, query, args)

	return d.conn(ctx).QueryContext(ctx, query, args...)
}

func (d *db) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	query = d.rebind(query)
	d.trace(ctx, query, args)

	return d.conn(ctx).QueryRowContext(ctx, query, args...)
}

// insert runs an INSERT and returns the generated id. Postgres has no
// LastInsertId, so the statement is extended with RETURNING there.
func (d *db) insert(ctx context.Context, query string, args ...any) (int, error) {
	if d.dialect == DialectPostgres {
		var id int

		err := d.queryRow(ctx, query+" RETURNING id", args...).Scan(&id)
		if err != nil {
			return 0, err
		}

		return id, nil
	}

	res, err := d.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	return int(id), nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (d *db) rebind(query string) string {
	if d.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder

	b.Grow(len(query) + 8)

	n := 0

	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))

			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

func (d *db) trace(ctx context.Context, query string, args []any) {
	if !d.debug {
		return
	}

	log.Debug(ctx, "store: query",
		log.String("query", query),
		log.Any("args", args),
	)
}

// prefixedColumns prefixes each column in a comma separated list with a
// table alias.
func prefixedColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}

	return strings.Join(parts, ", ")
}

// inPlaceholders returns "?, ?, ..." with n placeholders for IN clauses.
func inPlaceholders(n int) string {
	if n <= 0 {
		return ""
	}

	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// intsToAny widens an int slice for query args.
func intsToAny(ids []int) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	return args
}
