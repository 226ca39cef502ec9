package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// CountRecords returns the number of rows in table, restricted by condition
// when it is not blank.
func (h *Helper) CountRecords(ctx context.Context, table, condition string, args ...any) (int64, error) {
	if err := h.requireConnection(); err != nil {
		return 0, err
	}

	query := "SELECT COUNT(*) AS count FROM " + quoteIdent(table)
	if strings.TrimSpace(condition) != "" {
		query += " WHERE " + condition
	}
	row, err := h.Line(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	n, err := parseCount(row["count"])
	if err != nil {
		return 0, err
	}
	h.journal.addWork(replacePrefix(table, h.prefix), n, "counted")
	return n, nil
}

func parseCount(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case uint64:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse count %q: %w", t, err)
		}
		return n, nil
	case nil:
		return 0, ErrNoRows
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}

// LastID returns the most recent identifier generated on the session.
func (h *Helper) LastID() (int64, error) {
	if err := h.requireConnection(); err != nil {
		return 0, err
	}
	return h.lastInsertID, nil
}
