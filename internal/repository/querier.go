package repository

import (
	"context"
	"database/sql"
)

// Querier is the subset of database operations repositories need. It is
// satisfied by both *db.DB and *sql.Tx, so a service can run several
// repositories inside one transaction scope.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
