// Package report renders evaluation results, cost histories and stored
// solutions for the terminal.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is a named cost history, one value per optimization step.
type Series struct {
	Name   string
	Values []float64
}

type lineStyle struct {
	name   string
	period int
	on     int
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

var colorCodes = []string{
	"\x1b[36m", // cyan
	"\x1b[35m", // magenta
	"\x1b[33m", // yellow
	"\x1b[32m", // green
	"\x1b[34m", // blue
}

// PlotOptions controls the plot size and color. Zero sizes pick defaults:
// the width follows the terminal.
type PlotOptions struct {
	Width      int
	Height     int
	ForceColor bool
}

// PlotCosts renders the cost histories as a braille chart. All series share
// one vertical scale so runs can be compared.
func PlotCosts(w io.Writer, title string, series []Series, opts PlotOptions) error {
	series = nonEmptySeries(series)
	if len(series) == 0 {
		return nil
	}

	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	lo, hi := costRange(series)
	labels := axisLabels(lo, hi, height)
	axisWidth := 0
	for _, l := range labels {
		axisWidth = max(axisWidth, runewidth.StringWidth(l))
	}
	width := opts.Width
	if width <= 0 {
		width = PlotWidthFor(terminalWidth(), axisWidth)
	}
	width = max(width, minPlotWidth)

	c := newCanvas(len(series), width, height)
	for si, s := range series {
		style := lineStyles[si%len(lineStyles)]
		prevX, prevY := -1, -1
		for x, v := range resample(s.Values, width) {
			px, py := x*2, c.row(v, lo, hi)
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					if style.plots(dx) {
						c.set(si, dx, dy)
					}
				})
			} else if style.plots(px) {
				c.set(si, px, py)
			}
			prevX, prevY = px, py
		}
	}

	useColor := shouldUseColor(w, opts.ForceColor)
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteByte('\n')
	}
	for _, s := range series {
		first, last := s.Values[0], s.Values[len(s.Values)-1]
		fmt.Fprintf(&b, "%s: %d steps, %.4f -> %.4f\n", s.Name, len(s.Values), first, last)
	}
	for y := 0; y < height; y++ {
		b.WriteString(runewidth.FillLeft(labels[y], axisWidth))
		b.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, owner := c.cell(x, y)
			ch := rune(0x2800 + int(mask))
			if useColor && owner >= 0 {
				b.WriteString(colorCodes[owner%len(colorCodes)])
				b.WriteRune(ch)
				b.WriteString(colorReset)
				continue
			}
			b.WriteRune(ch)
		}
		b.WriteByte('\n')
	}
	if len(series) > 1 {
		b.WriteString(legend(series, useColor))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// PlotWidthFor computes the chart width that fits next to the axis labels.
func PlotWidthFor(totalWidth, axisWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-axisWidth-runewidth.StringWidth(axisSeparator), minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func nonEmptySeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func costRange(series []Series) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi-lo < 1e-9 {
		lo--
		hi++
	}
	return lo, hi
}

func axisLabels(lo, hi float64, height int) []string {
	labels := make([]string, height)
	labels[0] = fmt.Sprintf("%.2f", hi)
	if height > 2 {
		labels[height/2] = fmt.Sprintf("%.2f", (lo+hi)/2)
	}
	if height > 1 {
		labels[height-1] = fmt.Sprintf("%.2f", lo)
	}
	return labels
}

func legend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := fmt.Sprintf("⠁ %s (%s)", s.Name, lineStyles[i%len(lineStyles)].name)
		if useColor {
			label = colorCodes[i%len(colorCodes)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func (ls lineStyle) plots(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

// resample stretches or averages values to exactly width points.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	switch {
	case len(values) == width:
		copy(out, values)
	case len(values) > width:
		for i := range out {
			start := i * len(values) / width
			end := max((i+1)*len(values)/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case len(values) == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(len(values)-1) / float64(width-1)
			idx := int(pos)
			if idx >= len(values)-1 {
				out[i] = values[len(values)-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

// canvas holds one braille bitmap per series. Each cell is 2x4 dots.
type canvas struct {
	width, height int
	layers        [][]uint8
}

func newCanvas(layers, width, height int) *canvas {
	c := &canvas{width: width, height: height, layers: make([][]uint8, layers)}
	for i := range c.layers {
		c.layers[i] = make([]uint8, width*height)
	}
	return c
}

// row maps a cost to a dot row; higher costs are drawn higher.
func (c *canvas) row(v, lo, hi float64) int {
	dots := c.height * 4
	if dots <= 1 {
		return 0
	}
	r := int(math.Round((1 - (v-lo)/(hi-lo)) * float64(dots-1)))
	return min(max(r, 0), dots-1)
}

func (c *canvas) set(layer, x, y int) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cx >= c.width || cy >= c.height {
		return
	}
	c.layers[layer][cy*c.width+cx] |= dotMask(x%2, y%4)
}

// cell merges the layers and reports the first series that drew in it.
func (c *canvas) cell(x, y int) (uint8, int) {
	var mask uint8
	owner := -1
	for i, layer := range c.layers {
		m := layer[y*c.width+x]
		if m == 0 {
			continue
		}
		if owner < 0 {
			owner = i
		}
		mask |= m
	}
	return mask, owner
}

var dotMasks = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func dotMask(x, y int) uint8 {
	return dotMasks[x][y]
}

// drawLine walks the Bresenham line between two dots.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
