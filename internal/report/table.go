package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table is a plain text table with optional right aligned columns.
type Table struct {
	Headers    []string
	Rows       [][]string
	RightAlign map[int]bool
}

// Lines renders the table, one string per line.
func (t Table) Lines() []string {
	colCount := len(t.Headers)
	for _, row := range t.Rows {
		colCount = max(colCount, len(row))
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}

	lines := make([]string, 0, len(t.Rows)+1)
	if len(t.Headers) > 0 {
		lines = append(lines, t.formatRow(t.Headers, widths))
	}
	for _, row := range t.Rows {
		lines = append(lines, t.formatRow(row, widths))
	}
	return lines
}

// String renders the table with a trailing newline.
func (t Table) String() string {
	lines := t.Lines()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func (t Table) formatRow(row []string, widths []int) string {
	var b strings.Builder
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		switch {
		case t.RightAlign[i]:
			b.WriteString(runewidth.FillLeft(cell, width))
		case i == len(widths)-1:
			b.WriteString(cell)
		default:
			b.WriteString(runewidth.FillRight(cell, width))
		}
	}
	return b.String()
}
