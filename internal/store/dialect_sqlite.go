package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLite runs the helper against an embedded database file, or an in-memory
// database when Credentials.Database is empty or ":memory:". Statements keep
// their MySQL flavour; SQLite accepts backtick-quoted identifiers.
type SQLite struct{}

// Name returns "sqlite".
func (SQLite) Name() string {
	return "sqlite"
}

// Target returns the database path, or ":memory:".
func (SQLite) Target(creds Credentials) string {
	if creds.Database == "" {
		return ":memory:"
	}
	return creds.Database
}

// Open opens the database file named by creds.Database.
func (s SQLite) Open(creds Credentials) (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.Target(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return db, nil
}

// Charset returns the database text encoding.
func (SQLite) Charset() string {
	return "UTF-8"
}

// SetCharset sets the encoding pragma. It has no effect once the database
// has content.
func (s SQLite) SetCharset(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA encoding = '%s'", s.Charset()))
	return err
}

// UpdateWhere emulates UPDATE ... LIMIT, which stock SQLite builds reject.
func (SQLite) UpdateWhere(table, condition string, limit int) string {
	if limit > 0 {
		return fmt.Sprintf("WHERE rowid IN (SELECT rowid FROM %s WHERE %s LIMIT %d)", quoteIdent(table), condition, limit)
	}
	return "WHERE " + condition
}

// DefaultRow returns DEFAULT VALUES; SQLite rejects empty column lists.
func (SQLite) DefaultRow() string {
	return "DEFAULT VALUES"
}

// DescribeError reports the extended result code of sqlite errors. SQLite has
// no SQLSTATE, so the state is always HY000.
func (SQLite) DescribeError(err error) (string, int, string) {
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		return genericSQLState, coded.Code(), err.Error()
	}
	return genericSQLState, 0, err.Error()
}
