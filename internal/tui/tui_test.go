package tui

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nijigenerate/nicxlive-sub001/internal/experiment"
)

func press(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMenuToSim(t *testing.T) {
	m := newModel(experiment.NewRegistry())
	if !strings.Contains(m.View(), "hair") {
		t.Error("menu should list the hair rig")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateKnobs || m.selected != m.rigs[0] {
		t.Fatalf("expected knobs for %s, got state %d", m.rigs[0], m.state)
	}

	m, cmd := press(t, m, key("s"))
	if m.state != stateSim || cmd == nil {
		t.Fatalf("expected sim with a tick, got state %d", m.state)
	}

	m, cmd = press(t, m, tickMsg(time.Now()))
	if cmd == nil {
		t.Error("running sim should keep ticking")
	}
	if m.frame.Time <= 0 {
		t.Errorf("tick should advance the rig, t=%f", m.frame.Time)
	}
	if !strings.Contains(m.View(), "running") {
		t.Error("sim view should show status")
	}

	m, _ = press(t, m, key(" "))
	before := m.frame.Time
	m, _ = press(t, m, tickMsg(time.Now()))
	if m.frame.Time != before {
		t.Error("paused sim should not advance")
	}
}

func TestKnobsReachDrivers(t *testing.T) {
	reg := experiment.NewRegistry()
	cfg, err := reg.GetRig("hair")
	if err != nil {
		t.Fatal(err)
	}
	m := newModel(reg).preselect("hair", cfg)
	m, _ = press(t, m, key("s"))

	if m.knobNames[0] != "angle_damping" {
		t.Fatalf("unexpected knob order %v", m.knobNames)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})

	id, _ := m.rig.Puppet.Find(m.rig.Drivers[0])
	d, _ := m.rig.Puppet.Driver(id)
	if math.Abs(d.Settings.AngleDamping-0.55) > 1e-9 {
		t.Errorf("expected angle damping 0.55, got %f", d.Settings.AngleDamping)
	}

	m, _ = press(t, m, key("r"))
	id, _ = m.rig.Puppet.Find(m.rig.Drivers[0])
	d, _ = m.rig.Puppet.Driver(id)
	if math.Abs(d.Settings.AngleDamping-0.55) > 1e-9 {
		t.Errorf("reset should keep moved knobs, got %f", d.Settings.AngleDamping)
	}
}

func TestSpeedBounds(t *testing.T) {
	reg := experiment.NewRegistry()
	cfg, _ := reg.GetRig("spring")
	m := newModel(reg).preselect("spring", cfg)
	m, _ = press(t, m, key("s"))

	for i := 0; i < 10; i++ {
		m, _ = press(t, m, key("+"))
	}
	if m.speed != 16 {
		t.Errorf("speed should cap at 16, got %f", m.speed)
	}
	m, _ = press(t, m, key("0"))
	if m.speed != 1 {
		t.Errorf("expected speed reset, got %f", m.speed)
	}
}

func TestSparkline(t *testing.T) {
	s := sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8)
	if s != "▁▂▃▄▅▆▇█" {
		t.Errorf("unexpected sparkline %q", s)
	}
	if sparkline(nil, 8) != "" {
		t.Error("empty data should render empty")
	}
}
