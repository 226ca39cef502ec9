package store

import (
	"context"
	"database/sql"
)

// sqlExecutor is implemented by *sql.DB so helper methods can run against
// the open session or a wrapped one.
type sqlExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
