package store

import (
	"context"
	"fmt"
	"time"
)

// RecordSet is the shaped output of Table.
//
// Without an index column every record lands in Rows. With one, records are
// stored in Keyed (later rows replace earlier ones) or, when duplicate keys
// are allowed, appended to Grouped. Records whose index value is missing or
// NULL still go to Rows. Keys lists index values in order of first appearance.
type RecordSet struct {
	Rows    []Record            `json:"rows,omitempty"`
	Keyed   map[string]Record   `json:"keyed,omitempty"`
	Grouped map[string][]Record `json:"grouped,omitempty"`
	Keys    []string            `json:"keys,omitempty"`
}

// Len is the number of entries in the set: flat rows plus distinct keys.
func (s *RecordSet) Len() int {
	return len(s.Rows) + len(s.Keyed) + len(s.Grouped)
}

type tableOptions struct {
	index      string
	duplicates bool
	args       []any
}

// TableOption shapes the result of Table.
type TableOption func(*tableOptions)

// IndexBy keys the record set by the value of column.
func IndexBy(column string) TableOption {
	return func(o *tableOptions) {
		o.index = column
	}
}

// AllowDuplicateKeys keeps every record sharing an index value, in result order.
func AllowDuplicateKeys() TableOption {
	return func(o *tableOptions) {
		o.duplicates = true
	}
}

// WithArgs binds args to the placeholders of the statement.
func WithArgs(args ...any) TableOption {
	return func(o *tableOptions) {
		o.args = args
	}
}

// Line runs query and returns its first row as read.
func (h *Helper) Line(ctx context.Context, query string, args ...any) (Record, error) {
	res, err := h.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	h.journal.addWork(LabelLine, res.Count(), "read")

	if len(res.Rows) == 0 {
		return nil, ErrNoRows
	}
	return res.Rows[0], nil
}

// Table runs query and shapes every normalized row into a RecordSet.
func (h *Helper) Table(ctx context.Context, query string, opts ...TableOption) (*RecordSet, error) {
	var o tableOptions
	for _, opt := range opts {
		opt(&o)
	}

	res, err := h.Query(ctx, query, o.args...)
	if err != nil {
		return nil, err
	}
	h.journal.addWork(LabelTable, res.Count(), "read")

	set := &RecordSet{}
	for _, row := range res.Rows {
		rec := normalizeRecord(row, h.lineBreaks)

		key, ok := "", false
		if o.index != "" {
			key, ok = keyString(rec[o.index])
		}
		switch {
		case !ok:
			set.Rows = append(set.Rows, rec)
		case o.duplicates:
			if set.Grouped == nil {
				set.Grouped = make(map[string][]Record)
			}
			if _, seen := set.Grouped[key]; !seen {
				set.Keys = append(set.Keys, key)
			}
			set.Grouped[key] = append(set.Grouped[key], rec)
		default:
			if set.Keyed == nil {
				set.Keyed = make(map[string]Record)
			}
			if _, seen := set.Keyed[key]; !seen {
				set.Keys = append(set.Keys, key)
			}
			set.Keyed[key] = rec
		}
	}

	if set.Len() == 0 {
		return nil, ErrNoRows
	}
	return set, nil
}

// keyString renders an index column value as a map key. NULL has no key.
func keyString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case []byte:
		return string(t), true
	case time.Time:
		return t.Format(time.DateTime), true
	default:
		return fmt.Sprint(t), true
	}
}
