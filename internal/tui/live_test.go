package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pidsim/internal/config"
	"github.com/san-kum/pidsim/internal/experiment"
)

func newModel(t *testing.T, cfg *config.Config) Model {
	t.Helper()
	exp, err := experiment.New(cfg)
	require.NoError(t, err)
	return NewModel(exp, 30)
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func ticks(t *testing.T, m Model, n int) Model {
	for i := 0; i < n; i++ {
		m = send(t, m, TickMsg(time.Now()))
	}
	return m
}

func TestLiveStepsOnTick(t *testing.T) {
	m := ticks(t, newModel(t, config.DefaultConfig()), 11)

	assert.Equal(t, 11, m.step)
	assert.Equal(t, 10, m.last.Step)
	assert.InDelta(t, 4.55, m.last.Output, 1e-9)
	assert.Len(t, m.outputs, 11)
}

func TestLivePause(t *testing.T) {
	m := newModel(t, config.DefaultConfig())
	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.False(t, m.running)

	m = ticks(t, m, 5)
	assert.Equal(t, 0, m.step)

	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m = ticks(t, m, 2)
	assert.Equal(t, 2, m.step)
}

func TestLiveTuneAndReset(t *testing.T) {
	m := newModel(t, config.DefaultConfig())
	require.Equal(t, []string{"kd", "ki", "kp"}, m.paramKeys)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.InDelta(t, 0.15*1.05, m.tunable.GetParams()["ki"], 1e-12)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.InDelta(t, 0.15*1.05*0.95, m.tunable.GetParams()["ki"], 1e-12)

	m = ticks(t, m, 20)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.Equal(t, 0, m.step)
	assert.Empty(t, m.outputs)
	assert.Equal(t, 0.15, m.tunable.GetParams()["ki"])

	// the loop starts over from rest
	m = ticks(t, m, 11)
	assert.InDelta(t, 4.55, m.last.Output, 1e-9)
}

type frozenGains struct{}

var errFrozen = errors.New("gains are read-only")

func (frozenGains) GetParams() map[string]float64             { return map[string]float64{"kp": 1} }
func (frozenGains) SetParam(name string, value float64) error { return errFrozen }

func TestLiveResetReportsTuningError(t *testing.T) {
	m := newModel(t, config.DefaultConfig())
	m.tunable = frozenGains{}
	m.initialParams = map[string]float64{"kp": 2}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.ErrorIs(t, m.err, errFrozen)
	assert.Contains(t, m.View(), "read-only")
}

func TestLiveTuneFromZero(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PID.Kd = 0
	m := newModel(t, cfg)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0.01, m.tunable.GetParams()["kd"])
}

func TestLiveStopsOnDivergence(t *testing.T) {
	cfg := config.GetPreset("open_loop")
	cfg.Plant.Denominator = []float64{1, -2}
	m := ticks(t, newModel(t, cfg), 2000)

	require.Error(t, m.err)
	assert.False(t, m.running)
	assert.Contains(t, m.View(), "unstable")
}

func TestLiveQuit(t *testing.T) {
	m := newModel(t, config.DefaultConfig())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestLiveView(t *testing.T) {
	m := ticks(t, newModel(t, config.DefaultConfig()), 12)
	view := m.View()
	assert.Contains(t, view, "PHOENIX")
	assert.Contains(t, view, "RUNNING")
	assert.Contains(t, view, "kp")
}
