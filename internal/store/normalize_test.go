package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_NormalizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		in         string
		lineBreaks bool
		want       string
	}{
		{name: "plain", in: "hello", lineBreaks: true, want: "hello"},
		{name: "escaped quotes", in: `it\'s \"quoted\"`, lineBreaks: true, want: `it's "quoted"`},
		{name: "crlf with breaks", in: "a\r\nb", lineBreaks: true, want: "a<br>b"},
		{name: "mixed without breaks", in: "a\r\nb\rc\nd", lineBreaks: false, want: "a\nb\nc\nd"},
		{name: "mixed with breaks", in: "a\r\nb\rc\nd", lineBreaks: true, want: "a<br>b<br>c<br>d"},
		{name: "lfcr collapses", in: "a\n\rb", lineBreaks: true, want: "a<br>b"},
		{name: "blank lines survive", in: "a\r\n\r\nb", lineBreaks: false, want: "a\n\nb"},
		{name: "empty", in: "", lineBreaks: true, want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := NormalizeString(tt.in, tt.lineBreaks)
			require.Equal(t, tt.want, got)
			require.Equal(t, got, NormalizeString(got, tt.lineBreaks), "normalizing twice must not change the result")
		})
	}
}

func TestStore_Normalize(t *testing.T) {
	t.Parallel()

	in := Record{
		"text":  "a\r\nb",
		"count": int64(3),
		"none":  nil,
		"nested": map[string]any{
			"list": []any{`x\'y`, 1.5},
		},
		"records": []Record{{"note": "c\rd"}},
	}

	got := Normalize(in, true)
	require.Equal(t, Record{
		"text":  "a<br>b",
		"count": int64(3),
		"none":  nil,
		"nested": map[string]any{
			"list": []any{"x'y", 1.5},
		},
		"records": []Record{{"note": "c<br>d"}},
	}, got)

	require.Equal(t, "a\r\nb", in["text"], "input must be left untouched")
	require.Nil(t, Normalize(nil, true))
	require.Equal(t, 42, Normalize(42, true))
}
