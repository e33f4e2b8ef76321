// Package ui holds small terminal rendering helpers shared by the CLI
// commands.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"
)

// Table renders rows of data in aligned columns.
type Table struct {
	w *tabwriter.Writer
}

// NewTable creates a table writer with the given column headers.
func NewTable(out io.Writer, headers ...string) *Table {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return &Table{w: tw}
}

// Row appends a row. Values are formatted with %v.
func (t *Table) Row(values ...any) {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	_, _ = fmt.Fprintln(t.w, strings.Join(parts, "\t"))
}

// Flush writes the buffered output.
func (t *Table) Flush() error {
	return t.w.Flush()
}

// IsTerminal reports whether v is an *os.File attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Short abbreviates a commit hash for display.
func Short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// FirstLine returns the first line of s with surrounding space removed.
func FirstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
