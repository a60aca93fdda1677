package migration

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Notifier delivers a run report to the operator (e.g. by mail).
type Notifier interface {
	NotifyReport(ctx context.Context, rep Report) error
}

// Succeeded reports whether the run finished without error.
func (r Report) Succeeded() bool { return r.Err == nil }

// Subject is a one-line summary suitable for a mail subject.
func (r Report) Subject() string {
	if r.Succeeded() {
		return fmt.Sprintf("[invoicer] migration succeeded: %d documents written", r.Written())
	}
	return "[invoicer] migration FAILED"
}

// Summary renders the report as plain text, one line per step.
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "source:   %s\n", r.Source)
	fmt.Fprintf(&b, "started:  %s\n", r.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "duration: %s\n\n", r.Duration.Round(time.Millisecond))

	for _, s := range r.Steps {
		if s.Skipped {
			fmt.Fprintf(&b, "%-14s <- %-16s skipped (export not found)\n", s.Collection, s.File)
			continue
		}
		fmt.Fprintf(&b, "%-14s <- %-16s read=%d written=%d (upserted=%d allocated=%d)\n",
			s.Collection, s.File, s.Read, s.Written, s.Upserted, s.Allocated)
	}

	if r.Err != nil {
		fmt.Fprintf(&b, "\nerror: %v\n", r.Err)
		b.WriteString("Documents written before the failure were kept. Re-run to converge; rows without an id will be duplicated.\n")
	}
	return b.String()
}
