package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// DefaultPort is the MySQL port used when Credentials.Port is zero.
const DefaultPort = 3306

// Credentials identify the session opened by Connect.
type Credentials struct {
	User     string
	Password string
	Database string
	Host     string
	Port     int
}

func (c Credentials) withDefaults() Credentials {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	return c
}

// Helper owns one database session and runs statements against it.
//
// A Helper is not safe for concurrent use. Callers sharing one across
// goroutines must serialize access themselves.
type Helper struct {
	dialect    Dialect
	prefix     string
	lineBreaks bool

	db           *sql.DB
	exec         sqlExecutor
	lastInsertID int64

	journal *journal
}

// Option configures a Helper.
type Option func(*Helper)

// WithDialect selects the engine behind the helper. MySQL is the default.
func WithDialect(d Dialect) Option {
	return func(h *Helper) {
		h.dialect = d
	}
}

// WithTablePrefix sets the string substituted for PrefixToken.
func WithTablePrefix(prefix string) Option {
	return func(h *Helper) {
		h.prefix = prefix
	}
}

// WithLineBreaks controls whether fetched newlines become "<br>".
func WithLineBreaks(enabled bool) Option {
	return func(h *Helper) {
		h.lineBreaks = enabled
	}
}

// New creates a Helper with no open session.
func New(opts ...Option) *Helper {
	h := &Helper{
		dialect:    MySQL{},
		lineBreaks: true,
		journal:    newJournal(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Dialect returns the engine the helper was configured with.
func (h *Helper) Dialect() Dialect {
	return h.dialect
}

// Connected reports whether a session is open.
func (h *Helper) Connected() bool {
	return h.db != nil
}

// Connect opens the session. It is a no-op when one is already open.
//
// A failure to reach the database is returned as *ConnectionError and leaves
// the helper disconnected. A failed charset negotiation is returned as
// *CharsetError and leaves the session open.
func (h *Helper) Connect(ctx context.Context, creds Credentials) error {
	if h.db != nil {
		return nil
	}
	creds = creds.withDefaults()
	target := h.dialect.Target(creds)

	db, err := h.dialect.Open(creds)
	if err == nil {
		// One connection keeps session state (charset, last insert id) in one place.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if err = db.PingContext(ctx); err != nil {
			_ = db.Close()
		}
	}
	if err != nil {
		h.journal.addError(msgConnectFailed + err.Error())
		return &ConnectionError{Dialect: h.dialect.Name(), Target: target, Err: err}
	}

	h.db = db
	h.exec = db
	log.Debug().Str("dialect", h.dialect.Name()).Str("target", target).Msg("Database connection established")

	if err := h.dialect.SetCharset(ctx, db); err != nil {
		h.journal.addError(fmt.Sprintf(msgCharsetFailed, h.dialect.Charset(), err))
		return &CharsetError{Charset: h.dialect.Charset(), Err: err}
	}
	return nil
}

// Close releases the session. Calling it without an open session is a no-op.
func (h *Helper) Close() error {
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	h.exec = nil
	h.lastInsertID = 0
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// requireConnection records and returns ErrNoConnection when no session is open.
func (h *Helper) requireConnection() error {
	if h.exec == nil {
		h.journal.addError(msgNoConnection)
		return ErrNoConnection
	}
	return nil
}
