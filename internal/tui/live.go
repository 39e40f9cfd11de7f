package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pidsim/internal/dynamo"
	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/reference"
	"github.com/san-kum/pidsim/internal/sim"
)

const historyCapacity = 120

var (
	chartStyle       = lipgloss.NewStyle().Padding(1, 2)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(36)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model drives an experiment one step per tick and renders the response.
type Model struct {
	name          string
	loop          sim.Driver
	ref           reference.Signal
	tunable       dynamo.Configurable
	dt            float64
	interval      time.Duration
	step          int
	last          dynamo.Sample
	references    []float64
	outputs       []float64
	running       bool
	paramKeys     []string
	initialParams map[string]float64
	selected      int
	err           error
}

// NewModel prepares a live view over exp, ticking fps times per second.
func NewModel(exp *experiment.Experiment, fps int) Model {
	if fps <= 0 {
		fps = 10
	}

	initialParams := make(map[string]float64)
	keys := make([]string, 0)
	if t := exp.Tunable(); t != nil {
		for k, v := range t.GetParams() {
			initialParams[k] = v
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	loop := exp.Loop()
	loop.Reset()

	return Model{
		name:          exp.Config().Name,
		loop:          loop,
		ref:           exp.Reference(),
		tunable:       exp.Tunable(),
		dt:            exp.Config().Dt,
		interval:      time.Second / time.Duration(fps),
		references:    make([]float64, 0, historyCapacity),
		outputs:       make([]float64, 0, historyCapacity),
		running:       true,
		paramKeys:     keys,
		initialParams: initialParams,
	}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, m.tick()
	}
	return m, nil
}

// advance runs one loop step. A failing step pauses the view.
func (m *Model) advance() {
	s, err := m.loop.Step(m.ref.At(m.step), m.dt)
	if err == nil && !s.IsValid() {
		err = &dynamo.SimulationError{Step: s.Step, Time: s.Time, Wrapped: dynamo.ErrUnstable}
	}
	if err != nil {
		m.err = err
		m.running = false
		return
	}

	m.step++
	m.last = s
	m.references = appendCapped(m.references, s.Reference)
	m.outputs = appendCapped(m.outputs, s.Output)
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	val := m.tunable.GetParams()[key]
	newVal := val * factor
	if newVal == 0 && factor > 1 {
		newVal = 0.01
	}
	if err := m.tunable.SetParam(key, newVal); err != nil {
		m.err = err
	}
}

// reset restores the loop state and the gains the view started with.
func (m *Model) reset() {
	m.loop.Reset()
	m.step = 0
	m.last = dynamo.Sample{}
	m.references = m.references[:0]
	m.outputs = m.outputs[:0]
	m.err = nil
	for k, v := range m.initialParams {
		if err := m.tunable.SetParam(k, v); err != nil {
			m.err = err
		}
	}
	m.running = true
}

func (m Model) View() string {
	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}

	chart := "waiting for samples"
	if len(m.outputs) > 1 {
		chart = asciigraph.PlotMany(
			[][]float64{m.references, m.outputs},
			asciigraph.Height(12),
			asciigraph.Width(60),
			asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Green),
			asciigraph.Caption("reference / output"),
		)
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(status + "\n\n")

	s.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%d", m.step)) + "\n")
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2f", m.last.Time)) + "\n")
	s.WriteString(labelStyle.Render("Reference") + valueStyle.Render(fmt.Sprintf("%.3f", m.last.Reference)) + "\n")
	s.WriteString(labelStyle.Render("Control") + valueStyle.Render(fmt.Sprintf("%.3f", m.last.Control)) + "\n")
	s.WriteString(labelStyle.Render("Output") + valueStyle.Render(fmt.Sprintf("%.3f", m.last.Output)) + "\n")

	s.WriteString("\nGAINS\n")
	if len(m.paramKeys) > 0 {
		params := m.tunable.GetParams()
		for i, k := range m.paramKeys {
			line := fmt.Sprintf("%-4s %s %.4f", k, gainBar(params[k], m.initialParams[k]), params[k])
			if i == m.selected {
				s.WriteString(activeParamStyle.Render("> "+line) + "\n")
			} else {
				s.WriteString("  " + labelStyle.Render(line) + "\n")
			}
		}
	} else {
		s.WriteString(labelStyle.Render("  (none)") + "\n")
	}

	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause R:Reset Q:Quit\nTab:Gain ↑↓:Tune ±5%"))

	return lipgloss.JoinHorizontal(lipgloss.Top, chartStyle.Render(chart), statsStyle.Render(s.String()))
}

// gainBar shows val relative to twice its starting value.
func gainBar(val, initial float64) string {
	const barWidth = 10
	if initial == 0 {
		initial = 1e-6
	}
	ratio := math.Max(0, math.Min(1, val/(2*initial)))
	filled := int(ratio * barWidth)
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", barWidth-filled) + "]"
}
