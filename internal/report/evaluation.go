package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/layopt/internal/evaluation"
	"github.com/verte-zerg/layopt/internal/layout"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	costStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	layoutStyle  = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0")).Bold(true)
)

// MetricsTable lists every metric of a result group.
func MetricsTable(mr *evaluation.MetricResults) Table {
	t := Table{
		Headers:    []string{"Metric", "Cost", "Weighted", "Details"},
		RightAlign: map[int]bool{1: true, 2: true},
	}
	for _, c := range mr.Costs {
		t.Rows = append(t.Rows, []string{
			c.Name,
			fmt.Sprintf("%.4f", c.UnweightedCost),
			fmt.Sprintf("%.4f", c.WeightedCost),
			c.Message,
		})
	}
	return t
}

// RenderEvaluation formats a layout and its evaluation. Without styling the
// result groups use the plain results format.
func RenderEvaluation(l *layout.Layout, res *evaluation.EvaluationResult, layer int, styled bool) string {
	plot := strings.TrimRight(l.PlotLayer(layer), "\n")
	if !styled {
		return fmt.Sprintf("Layout (layer %d):\n%s\n\n%s", layer, plot, res.String())
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Layout " + l.AsText()))
	b.WriteByte('\n')
	b.WriteString(layoutStyle.Render(plot))
	b.WriteString("\n\n")
	for _, mr := range res.Results {
		if len(mr.Costs) == 0 {
			continue
		}
		header := fmt.Sprintf("%s metrics", mr.Type)
		b.WriteString(sectionStyle.Render(header))
		if mr.Type != evaluation.LayoutMetrics {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  not found: %s", notFoundShare(mr))))
		}
		b.WriteByte('\n')
		for _, line := range MetricsTable(mr).Lines() {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	b.WriteString(costStyle.Render(fmt.Sprintf("Cost: %.4f", res.TotalCost())))
	b.WriteString(mutedStyle.Render(fmt.Sprintf(" (optimization score: %d)", res.OptimizationScore())))
	b.WriteByte('\n')
	return b.String()
}

func notFoundShare(mr *evaluation.MetricResults) string {
	all := mr.FoundWeight + mr.NotFoundWeight
	if all <= 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", 100*mr.NotFoundWeight/all)
}
