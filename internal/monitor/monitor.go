// Package monitor snapshots thread handles and presents them as a table, on
// a text writer or on a framebuffer.
package monitor

import (
	"fmt"
	"io"

	"rtthread/thread"
	"rtthread/tick"
)

// Row is the observable state of one thread at snapshot time.
type Row struct {
	ID       thread.ID
	Name     string
	Priority thread.Priority
	State    thread.State
	Runs     uint32
	Stack    int
	Joinable bool
}

// Snapshot reads the state of each thread.
func Snapshot(threads []*thread.Thread) []Row {
	rows := make([]Row, 0, len(threads))
	for _, t := range threads {
		rows = append(rows, Row{
			ID:       t.ID(),
			Name:     t.Name(),
			Priority: t.Priority(),
			State:    t.State(),
			Runs:     t.RunCount(),
			Stack:    t.StackSize(),
			Joinable: t.Joinable(),
		})
	}
	return rows
}

const header = "NAME         PRI STATE       RUNS  STACK JOIN"

func formatRow(r Row) string {
	join := "-"
	if r.Joinable {
		join = "yes"
	}
	return fmt.Sprintf("%-12.12s %3d %-10s %5d %6d %s", r.Name, r.Priority, r.State, r.Runs, r.Stack, join)
}

// WriteTable writes rows as a fixed-width table headed by the tick count.
func WriteTable(w io.Writer, now tick.TimePoint, rows []Row) error {
	if _, err := fmt.Fprintf(w, "tick %d, %d threads\n%s\n", now, len(rows), header); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintln(w, formatRow(r)); err != nil {
			return err
		}
	}
	return nil
}
