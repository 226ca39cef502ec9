package store

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Labels used in the work log for reads that are not tied to a table. Writes
// and counts are logged under the table name, prefix applied.
const (
	LabelLine  = "line"
	LabelTable = "table"
)

// journal holds the append-only work and error logs of one helper.
type journal struct {
	labels []string
	work   map[string][]string
	errors []string
}

func newJournal() *journal {
	return &journal{work: make(map[string][]string)}
}

func (j *journal) addWork(label string, rows int64, verb string) {
	if _, ok := j.work[label]; !ok {
		j.labels = append(j.labels, label)
	}
	j.work[label] = append(j.work[label], fmt.Sprintf("%d Row(s) %s.", rows, verb))
}

func (j *journal) addError(msg string) {
	j.errors = append(j.errors, msg)
	log.Warn().Str("error", msg).Msg("Database operation failed")
}

// WorkLog returns a copy of the work log, keyed by label.
func (h *Helper) WorkLog() map[string][]string {
	out := make(map[string][]string, len(h.journal.work))
	for label, entries := range h.journal.work {
		out[label] = append([]string(nil), entries...)
	}
	return out
}

// WorkLabels returns the work log labels in order of first use.
func (h *Helper) WorkLabels() []string {
	return append([]string(nil), h.journal.labels...)
}

// ErrorLog returns a copy of every error recorded so far, oldest first.
func (h *Helper) ErrorLog() []string {
	return append([]string(nil), h.journal.errors...)
}
