package store

import "strings"

const lineBreak = "<br>"

var unescaper = strings.NewReplacer(
	`\'`, `'`,
	`\"`, `"`,
	"\r\n", "\n",
	"\n\r", "\n",
	"\r", "\n",
)

// NormalizeString unescapes backslash-escaped quotes and folds "\r\n", "\n\r"
// and lone "\r" into "\n". With lineBreaks set, newlines become "<br>".
func NormalizeString(s string, lineBreaks bool) string {
	s = unescaper.Replace(s)
	if lineBreaks {
		s = strings.ReplaceAll(s, "\n", lineBreak)
	}
	return s
}

// Normalize applies NormalizeString to every string inside v, descending into
// records, maps and slices. Containers are copied; v is left untouched.
func Normalize(v any, lineBreaks bool) any {
	switch t := v.(type) {
	case string:
		return NormalizeString(t, lineBreaks)
	case Record:
		return normalizeRecord(t, lineBreaks)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val, lineBreaks)
		}
		return out
	case []Record:
		out := make([]Record, len(t))
		for i, rec := range t {
			out[i] = normalizeRecord(rec, lineBreaks)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val, lineBreaks)
		}
		return out
	default:
		return v
	}
}

func normalizeRecord(rec Record, lineBreaks bool) Record {
	if rec == nil {
		return nil
	}
	out := make(Record, len(rec))
	for k, val := range rec {
		out[k] = Normalize(val, lineBreaks)
	}
	return out
}
