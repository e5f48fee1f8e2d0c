// Package tui provides the Bubble Tea interface for stepping through an
// evolutionary search.
package tui

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/layopt/internal/optimization"
	"github.com/verte-zerg/layopt/internal/report"
)

const (
	tabLayout = iota
	tabMetrics
	tabHistory
)

const (
	plotHeight   = 10
	autoInterval = 50 * time.Millisecond
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	finalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

// FinishFunc receives the final step and the all-time best cost of every
// generation.
type FinishFunc func(res optimization.StepResult, history []float64) error

type tickMsg struct{}

// Model implements the Bubble Tea step viewer.
type Model struct {
	sim      *optimization.Simulator
	obj      *optimization.Objective
	onFinish FinishFunc

	last     optimization.StepResult
	hasStep  bool
	history  []float64
	running  bool
	finished bool
	errMsg   string

	tabs      []string
	activeTab int
	viewport  viewport.Model
	progress  progress.Model

	width  int
	height int
}

// NewModel constructs a step viewer. onFinish may be nil.
func NewModel(sim *optimization.Simulator, obj *optimization.Objective, onFinish FinishFunc) *Model {
	m := &Model{
		sim:      sim,
		obj:      obj,
		onFinish: onFinish,
		tabs:     []string{"Layout", "Metrics", "Cost History"},
		viewport: viewport.New(0, 0),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	m.renderContent()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderContent()
		return m, nil
	case tickMsg:
		if !m.running {
			return m, nil
		}
		m.step()
		if m.running {
			return m, tick()
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, nil
		case "right", "l":
			m.moveTab(1)
			return m, nil
		case "n", " ":
			m.running = false
			m.step()
			return m, nil
		case "r":
			if m.finished {
				return m, nil
			}
			m.running = !m.running
			if m.running {
				return m, tick()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := m.renderTabs()
	footer := m.renderFooter()
	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), footer)
}

func tick() tea.Cmd {
	return tea.Tick(autoInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// step advances the simulator by one generation.
func (m *Model) step() {
	if m.finished {
		return
	}
	res, err := m.sim.Step()
	if err != nil {
		m.errMsg = err.Error()
		m.running = false
		return
	}
	m.last = res
	m.hasStep = true
	if res.Kind == optimization.StepFinal {
		m.finished = true
		m.running = false
		if m.onFinish != nil {
			if err := m.onFinish(res, m.history); err != nil {
				m.errMsg = err.Error()
			}
		}
	} else {
		m.history = append(m.history, res.AllTimeBest.Cost())
	}
	m.renderContent()
}

func (m *Model) moveTab(delta int) {
	m.activeTab = (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	m.renderContent()
	m.viewport.GotoTop()
}

func (m *Model) updateLayout() {
	headerHeight := lipgloss.Height(m.renderTabs())
	footerHeight := lipgloss.Height(m.renderFooter())
	m.viewport.Width = m.width
	m.viewport.Height = max(1, m.height-headerHeight-footerHeight)
	m.progress.Width = max(10, m.width/3)
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// renderContent refreshes the viewport with the active tab.
func (m *Model) renderContent() {
	best, ok := m.sim.AllTimeBest()
	if !ok || !m.hasStep {
		m.viewport.SetContent("Press n to run the first generation.")
		return
	}
	switch m.activeTab {
	case tabLayout:
		l, res := m.obj.Evaluate(best.Genome)
		m.viewport.SetContent(fmt.Sprintf("%s\n\n%s\n\nCost: %.4f (optimization score: %d)",
			l.AsText(), l.Plot(), res.TotalCost(), res.OptimizationScore()))
	case tabMetrics:
		_, res := m.obj.Evaluate(best.Genome)
		m.viewport.SetContent(wrapLines(res.String(), m.width))
	case tabHistory:
		var buf bytes.Buffer
		width := report.PlotWidthFor(m.width, 10)
		err := report.PlotCosts(&buf, "All-time best cost", []report.Series{{Name: "best", Values: m.history}},
			report.PlotOptions{Width: width, Height: plotHeight})
		if err != nil {
			m.viewport.SetContent(err.Error())
			return
		}
		m.viewport.SetContent(buf.String())
	}
}

func (m *Model) renderFooter() string {
	limit := m.sim.Params().GenerationLimit
	generation := m.sim.Generation()
	segments := []string{fmt.Sprintf("Generation %d/%d", generation, limit)}
	if m.hasStep {
		segments = append(segments,
			fmt.Sprintf("Best %.4f", m.last.Best.Cost()),
			fmt.Sprintf("All-time %.4f", m.last.AllTimeBest.Cost()))
	}
	state := "n step · r run · ←/→ tabs · q quit"
	if m.running {
		state = "running · r pause · q quit"
	}
	line := footerStyle.Render(strings.Join(segments, "  ") + "  " + state)
	if limit > 0 {
		line = m.progress.ViewAs(float64(generation)/float64(limit)) + " " + line
	}
	if m.finished {
		line += "  " + finalStyle.Render("done")
	}
	if m.errMsg != "" {
		line += "\n" + errorStyle.Render(m.errMsg)
	}
	return line
}
