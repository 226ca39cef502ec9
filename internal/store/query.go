package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/simple_mysql_go/internal/metrics"
)

// PrefixToken is replaced, case-insensitively, with the configured table
// prefix in every statement before it runs.
const PrefixToken = "{prefix}"

// Record is one row, column name to value.
type Record map[string]any

// Result is what a statement produced. Row-returning statements fill Columns
// and Rows; everything else fills RowsAffected and LastInsertID.
type Result struct {
	Columns      []string
	Rows         []Record
	RowsAffected int64
	LastInsertID int64
}

// Count is the number of rows read or affected.
func (r *Result) Count() int64 {
	if r.Columns != nil {
		return int64(len(r.Rows))
	}
	return r.RowsAffected
}

const (
	kindRead = "read"
	kindExec = "exec"
)

// Query runs one statement on the open session.
func (h *Helper) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	if err := h.requireConnection(); err != nil {
		return nil, err
	}

	query = replacePrefix(query, h.prefix)
	if strings.TrimSpace(query) == "" {
		h.journal.addError(msgInvalidQuery)
		return nil, ErrInvalidQuery
	}

	kind := statementKind(query)
	start := time.Now()
	var (
		res *Result
		err error
	)
	if kind == kindRead {
		res, err = h.read(ctx, query, args)
	} else {
		res, err = h.write(ctx, query, args)
	}
	duration := time.Since(start)
	metrics.QueryDuration.WithLabelValues(kind).Observe(duration.Seconds())

	if err != nil {
		metrics.QueriesTotal.WithLabelValues(kind, "error").Inc()
		state, code, msg := h.dialect.DescribeError(err)
		qerr := &QueryError{SQLState: state, Code: code, Message: msg, Err: err}
		h.journal.addError(qerr.logLine())
		return nil, qerr
	}
	metrics.QueriesTotal.WithLabelValues(kind, "success").Inc()

	if res.LastInsertID > 0 {
		h.lastInsertID = res.LastInsertID
	}
	log.Debug().Str("sql", query).Int64("rows", res.Count()).Dur("took", duration).Msg("Query executed")
	return res, nil
}

func (h *Helper) read(ctx context.Context, query string, args []any) (*Result, error) {
	rows, err := h.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	res := &Result{Columns: columns, Rows: []Record{}}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Record, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (h *Helper) write(ctx context.Context, query string, args []any) (*Result, error) {
	r, err := h.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	affected, err := r.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read insert id: %w", err)
	}
	return &Result{RowsAffected: affected, LastInsertID: id}, nil
}

var readStatements = map[string]bool{
	"SELECT":   true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
	"WITH":     true,
	"VALUES":   true,
	"TABLE":    true,
	"PRAGMA":   true,
	"CALL":     true,
}

// statementKind classifies a statement by its leading keyword, ignoring any
// comments in front of it.
func statementKind(query string) string {
	q := skipLeadingComments(query)
	end := strings.IndexFunc(q, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '(' || r == ';'
	})
	if end >= 0 {
		q = q[:end]
	}
	if readStatements[strings.ToUpper(q)] {
		return kindRead
	}
	return kindExec
}

func skipLeadingComments(query string) string {
	for {
		query = strings.TrimLeft(query, " \t\r\n(")
		switch {
		case strings.HasPrefix(query, "/*"):
			end := strings.Index(query[2:], "*/")
			if end < 0 {
				return ""
			}
			query = query[end+4:]
		case strings.HasPrefix(query, "--"), strings.HasPrefix(query, "#"):
			end := strings.IndexByte(query, '\n')
			if end < 0 {
				return ""
			}
			query = query[end+1:]
		default:
			return query
		}
	}
}

// replacePrefix substitutes prefix for every case-insensitive occurrence of
// PrefixToken.
func replacePrefix(query, prefix string) string {
	if !strings.Contains(strings.ToLower(query), PrefixToken) {
		return query
	}
	n := len(PrefixToken)
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); {
		if i+n <= len(query) && strings.EqualFold(query[i:i+n], PrefixToken) {
			b.WriteString(prefix)
			i += n
			continue
		}
		b.WriteByte(query[i])
		i++
	}
	return b.String()
}
