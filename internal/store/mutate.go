package store

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// InsertOptions carries raw SQL fragments spliced into an INSERT.
type InsertOptions struct {
	// Conditions goes between INSERT and INTO, e.g. "IGNORE".
	Conditions string
	// Extra is appended after the value list and the where text,
	// e.g. "ON DUPLICATE KEY UPDATE hits = hits + 1".
	Extra string
}

// Insert adds one row to table and returns the identifier the session
// generated for it. Values are bound as parameters; nil binds as NULL.
// where is appended verbatim after the value list. An empty value map inserts
// a row of column defaults.
func (h *Helper) Insert(ctx context.Context, table string, values map[string]any, where string, opts InsertOptions) (int64, error) {
	if err := h.requireConnection(); err != nil {
		return 0, err
	}

	query, args := buildInsert(h.dialect, table, values, where, opts)
	res, err := h.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	h.journal.addWork(replacePrefix(table, h.prefix), res.RowsAffected, "inserted")

	if res.LastInsertID == 0 {
		return 0, ErrNoInsertID
	}
	return res.LastInsertID, nil
}

// Delete removes the rows of table matching condition. A blank condition is
// refused before anything is sent to the database.
func (h *Helper) Delete(ctx context.Context, table, condition string, args ...any) error {
	if err := h.requireConnection(); err != nil {
		return err
	}
	if strings.TrimSpace(condition) == "" {
		h.journal.addError(msgDeleteNoCond)
		return ErrNoCondition
	}

	res, err := h.Query(ctx, "DELETE FROM "+quoteIdent(table)+" WHERE "+condition, args...)
	if err != nil {
		return err
	}
	h.journal.addWork(replacePrefix(table, h.prefix), res.RowsAffected, "deleted")
	return nil
}

// Update sets values on at most limit rows of table matching condition; a
// limit <= 0 lifts the cap. Values are bound first, then args for the
// placeholders in condition.
func (h *Helper) Update(ctx context.Context, table string, values map[string]any, condition string, limit int, args ...any) error {
	if err := h.requireConnection(); err != nil {
		return err
	}
	if len(values) == 0 {
		h.journal.addError(msgUpdateNoData)
		return ErrNoData
	}
	if strings.TrimSpace(condition) == "" {
		h.journal.addError(msgUpdateNoCond)
		return ErrNoCondition
	}

	query, bound := buildUpdate(h.dialect, table, values, condition, limit)
	res, err := h.Query(ctx, query, append(bound, args...)...)
	if err != nil {
		return err
	}
	h.journal.addWork(replacePrefix(table, h.prefix), res.RowsAffected, "updated")
	return nil
}

func buildInsert(d Dialect, table string, values map[string]any, where string, opts InsertOptions) (string, []any) {
	columns := sortedColumns(values)
	quoted := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
		args[i] = values[col]
	}

	var b strings.Builder
	b.WriteString("INSERT ")
	if c := strings.TrimSpace(opts.Conditions); c != "" {
		b.WriteString(c)
		b.WriteString(" ")
	}
	b.WriteString("INTO ")
	b.WriteString(quoteIdent(table))
	if len(columns) == 0 {
		b.WriteString(" ")
		b.WriteString(d.DefaultRow())
	} else {
		b.WriteString(" (")
		b.WriteString(strings.Join(quoted, ","))
		b.WriteString(") VALUES (")
		b.WriteString(placeholders(len(columns)))
		b.WriteString(")")
	}
	if w := strings.TrimSpace(where); w != "" {
		b.WriteString(" ")
		b.WriteString(w)
	}
	if e := strings.TrimSpace(opts.Extra); e != "" {
		b.WriteString(" ")
		b.WriteString(e)
	}
	return b.String(), args
}

func buildUpdate(d Dialect, table string, values map[string]any, condition string, limit int) (string, []any) {
	columns := sortedColumns(values)
	set := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		set[i] = quoteIdent(col) + " = ?"
		args[i] = values[col]
	}
	query := "UPDATE " + quoteIdent(table) + " SET " + strings.Join(set, ", ") + " " + d.UpdateWhere(table, condition, limit)
	return query, args
}

func sortedColumns(values map[string]any) []string {
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// quoteIdent wraps name in backticks, doubling any backtick inside it.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// IsEmptyResult reports whether err only signals that nothing was found or
// generated, as opposed to a failure.
func IsEmptyResult(err error) bool {
	return errors.Is(err, ErrNoRows) || errors.Is(err, ErrNoInsertID)
}
