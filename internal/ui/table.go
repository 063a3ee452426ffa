package ui

import (
	"fmt"
	"strings"
)

// TableColumn describes one column. Align is "left" (default), "right" or
// "center".
type TableColumn struct {
	Header string
	Width  int
	Align  string
}

// Table collects rows and renders them with column rules.
type Table struct {
	Columns []TableColumn
	Rows    [][]string
}

// NewTable creates a table with the given columns.
func NewTable(columns []TableColumn) *Table {
	return &Table{Columns: columns}
}

// AddRow appends a row, padding or cutting it to the column count.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// fit scales column widths down so the table fits in width.
func (t *Table) fit(width int) []int {
	widths := make([]int, len(t.Columns))
	requested := 0
	for i, col := range t.Columns {
		widths[i] = max(col.Width, 1)
		requested += widths[i]
	}
	// Each column adds a separator and two spaces of padding.
	available := width - 1 - 3*len(t.Columns)
	if requested <= available || available <= len(t.Columns) {
		return widths
	}
	for i := range widths {
		widths[i] = max(widths[i]*available/requested, 1)
	}
	return widths
}

func (t *Table) rule(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat(BoxHorizontal, w+2)
	}
	return ColorCyan + strings.Join(parts, BoxHorizontal) + ColorReset
}

func align(s string, width int, how string) string {
	s = TruncateWithEllipsis(s, width)
	switch how {
	case "right":
		return PadLeft(s, width)
	case "center":
		return PadCenter(s, width)
	default:
		return PadRight(s, width)
	}
}

// Render returns the table as text.
func (t *Table) Render(width int) string {
	if len(t.Columns) == 0 {
		return ""
	}
	widths := t.fit(width)
	sep := ColorCyan + BoxVertical + ColorReset

	var b strings.Builder
	line := func(cells []string, header bool) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString(sep)
			}
			if header {
				fmt.Fprintf(&b, " %s%s%s ", ColorBold, align(cell, widths[i], "center"), ColorReset)
				continue
			}
			fmt.Fprintf(&b, " %s ", align(cell, widths[i], t.Columns[i].Align))
		}
		b.WriteByte('\n')
	}

	headers := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headers[i] = col.Header
	}
	line(headers, true)
	b.WriteString(t.rule(widths))
	b.WriteByte('\n')
	for _, row := range t.Rows {
		line(row, false)
	}
	return b.String()
}

// Print renders the table to stdout at the terminal width.
func (t *Table) Print() {
	closeProgress()
	fmt.Print(t.Render(GetTermWidth()))
}
