package store

import (
	"errors"
	"fmt"
)

// Messages appended to the error log. They are part of the observable
// behaviour of the helper and are matched by callers.
const (
	msgNoConnection   = "No active database connection."
	msgInvalidQuery   = "Invalid query after prefix replacement."
	msgDeleteNoCond   = "No condition provided for DELETE operation."
	msgUpdateNoCond   = "No condition provided for UPDATE operation."
	msgUpdateNoData   = "No data provided for UPDATE operation."
	msgConnectFailed  = "Connect failed: "
	msgCharsetFailed  = "Error loading character set %s: %v"
	msgQueryFailedFmt = "Query Error [%s]: %s"
)

var (
	// ErrNoConnection is returned by every operation other than Connect and
	// Close when no session is open.
	ErrNoConnection = errors.New("no active database connection")

	// ErrInvalidQuery is returned when the statement is blank after the
	// table prefix has been substituted.
	ErrInvalidQuery = errors.New("invalid query after prefix replacement")

	// ErrNoCondition is returned by Delete and Update when the condition is blank.
	ErrNoCondition = errors.New("no condition provided")

	// ErrNoData is returned by Update when the value map is empty.
	ErrNoData = errors.New("no data provided")

	// ErrNoRows is returned when a read produced no records. It is never
	// recorded in the error log.
	ErrNoRows = errors.New("no rows in result set")

	// ErrNoInsertID is returned by Insert when the statement succeeded but the
	// session reported no generated identifier. It is never recorded in the
	// error log.
	ErrNoInsertID = errors.New("no insert id reported")
)

// ConnectionError reports a failure to establish the session.
type ConnectionError struct {
	Dialect string
	Target  string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s %s failed: %v", e.Dialect, e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// CharsetError reports a failed character set negotiation. The session stays
// open when it is returned.
type CharsetError struct {
	Charset string
	Err     error
}

func (e *CharsetError) Error() string {
	return fmt.Sprintf("failed to set character set %s: %v", e.Charset, e.Err)
}

func (e *CharsetError) Unwrap() error {
	return e.Err
}

// QueryError is a statement rejected by the database.
type QueryError struct {
	SQLState string
	Code     int
	Message  string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error [%s]: %s", e.SQLState, e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func (e *QueryError) logLine() string {
	return fmt.Sprintf(msgQueryFailedFmt, e.SQLState, e.Message)
}
