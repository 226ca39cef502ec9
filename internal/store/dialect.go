package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

const genericSQLState = "HY000"

// Dialect opens sessions and covers the few places where the engine behind
// the helper shows through.
type Dialect interface {
	Name() string
	// Target describes where the credentials point, for logs and errors.
	Target(creds Credentials) string
	Open(creds Credentials) (*sql.DB, error)
	Charset() string
	SetCharset(ctx context.Context, db *sql.DB) error
	// UpdateWhere renders the WHERE tail of an UPDATE, including the row limit
	// when limit > 0.
	UpdateWhere(table, condition string, limit int) string
	// DefaultRow renders the INSERT tail that adds one row of column defaults.
	DefaultRow() string
	DescribeError(err error) (state string, code int, message string)
}

// MySQL speaks to a MySQL or MariaDB server through go-sql-driver.
type MySQL struct{}

// Name returns "mysql".
func (MySQL) Name() string {
	return "mysql"
}

// Target returns host:port/database.
func (MySQL) Target(creds Credentials) string {
	return net.JoinHostPort(creds.Host, strconv.Itoa(creds.Port)) + "/" + creds.Database
}

// Open builds a connector from creds. No connection is made until first use.
func (MySQL) Open(creds Credentials) (*sql.DB, error) {
	cfg := mysql.NewConfig()
	cfg.User = creds.User
	cfg.Passwd = creds.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(creds.Host, strconv.Itoa(creds.Port))
	cfg.DBName = creds.Database

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build mysql connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// Charset returns the session character set.
func (MySQL) Charset() string {
	return "utf8mb4"
}

// SetCharset issues SET NAMES on the session.
func (m MySQL) SetCharset(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, "SET NAMES "+m.Charset())
	return err
}

// UpdateWhere appends LIMIT when limit > 0.
func (MySQL) UpdateWhere(_, condition string, limit int) string {
	if limit > 0 {
		return fmt.Sprintf("WHERE %s LIMIT %d", condition, limit)
	}
	return "WHERE " + condition
}

// DefaultRow returns the empty column and value lists.
func (MySQL) DefaultRow() string {
	return "() VALUES ()"
}

// DescribeError unpacks a server error into SQLSTATE, error number and message.
func (MySQL) DescribeError(err error) (string, int, string) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		state := string(myErr.SQLState[:])
		if myErr.SQLState == [5]byte{} {
			state = genericSQLState
		}
		return state, int(myErr.Number), myErr.Message
	}
	return genericSQLState, 0, err.Error()
}
