package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table writes aligned rows with a styled header.
type Table struct {
	w       *tabwriter.Writer
	columns int
}

// NewTable starts a table on out and writes its header.
func NewTable(out io.Writer, headers ...string) *Table {
	t := &Table{
		w:       tabwriter.NewWriter(out, 0, 0, 2, ' ', 0),
		columns: len(headers),
	}

	styled := make([]string, len(headers))
	rules := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = HeaderStyle.Render(h)
		rules[i] = strings.Repeat("-", len(h))
	}
	t.line(styled)
	t.line(rules)
	return t
}

// Row appends a row. Missing cells are left blank.
func (t *Table) Row(cells ...string) {
	for len(cells) < t.columns {
		cells = append(cells, "")
	}
	t.line(cells)
}

// Flush writes the buffered table.
func (t *Table) Flush() error {
	return t.w.Flush()
}

func (t *Table) line(cells []string) {
	_, _ = fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
