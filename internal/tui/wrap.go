package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapLines soft-wraps every line of s at spaces so it fits width columns.
// Continuation lines keep the indentation of their source line. Words wider
// than the line are broken.
func wrapLines(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	if runewidth.StringWidth(line) <= width {
		return []string{line}
	}
	indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
	if runewidth.StringWidth(indent) >= width/2 {
		indent = ""
	}

	var out []string
	var cur strings.Builder
	curWidth := 0
	flush := func() {
		out = append(out, cur.String())
		cur.Reset()
		cur.WriteString(indent)
		curWidth = runewidth.StringWidth(indent)
	}
	cur.WriteString(indent)
	curWidth = runewidth.StringWidth(indent)
	fresh := true

	for _, word := range strings.Fields(line) {
		w := runewidth.StringWidth(word)
		if !fresh && curWidth+1+w > width {
			flush()
			fresh = true
		}
		if !fresh {
			cur.WriteByte(' ')
			curWidth++
		}
		for curWidth+w > width {
			head := runewidth.Truncate(word, width-curWidth, "")
			if head == "" {
				break
			}
			cur.WriteString(head)
			word = word[len(head):]
			w = runewidth.StringWidth(word)
			flush()
		}
		cur.WriteString(word)
		curWidth += w
		fresh = false
	}
	out = append(out, cur.String())
	return out
}
