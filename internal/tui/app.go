// Package tui is an interactive terminal view of a running rig.
package tui

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gogpu/gg"

	"github.com/nijigenerate/nicxlive-sub001/internal/config"
	"github.com/nijigenerate/nicxlive-sub001/internal/experiment"
	"github.com/nijigenerate/nicxlive-sub001/internal/metrics"
)

type state int

const (
	stateMenu state = iota
	stateKnobs
	stateSim
)

const historyLen = 120

// knobSteps are the increments for the driver constants exposed as knobs.
var knobSteps = map[string]float64{
	"gravity":        0.1,
	"length":         10,
	"frequency":      0.1,
	"angle_damping":  0.05,
	"length_damping": 0.05,
	"output_scale_x": 0.1,
	"output_scale_y": 0.1,
}

type model struct {
	state    state
	registry *experiment.Registry
	rigs     []string
	cursor   int
	selected string

	cfg        *config.Config
	rig        *config.Rig
	exp        *experiment.Experiment
	knobNames  []string
	knobs      map[string]float64
	touched    map[string]bool
	knobCursor int

	running     bool
	paused      bool
	speed       float64
	frame       metrics.Frame
	history     []float64
	diagnostics int
	lo, hi      gg.Point
	lastFrame   time.Time
	fps         float64
	err         error

	width  int
	height int
}

func newModel(registry *experiment.Registry) model {
	names := make([]string, 0, len(knobSteps))
	for n := range knobSteps {
		names = append(names, n)
	}
	sort.Strings(names)
	return model{
		state:     stateMenu,
		registry:  registry,
		rigs:      registry.ListRigs(),
		knobNames: names,
		knobs:     make(map[string]float64),
		touched:   make(map[string]bool),
		speed:     1,
		width:     80,
		height:    24,
	}
}

// preselect skips the menu and opens the knobs of cfg.
func (m model) preselect(name string, cfg *config.Config) model {
	m.selected = name
	m.cfg = cfg
	m.loadKnobs()
	m.state = stateKnobs
	return m
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim || !m.running {
			return m, nil
		}
		if !m.paused {
			now := time.Now()
			if !m.lastFrame.IsZero() {
				if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
					m.fps = 1.0 / dt
				}
			}
			m.lastFrame = now
			m.step(max(1, int(m.speed)))
		}
		return m, tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateKnobs:
		return m.knobKey(msg)
	case stateSim:
		return m.simKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rigs)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.rigs) == 0 {
			return m, nil
		}
		cfg, err := m.registry.GetRig(m.rigs[m.cursor])
		if err != nil {
			m.err = err
			return m, nil
		}
		m = m.preselect(m.rigs[m.cursor], cfg)
	}
	return m, nil
}

func (m model) knobKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateMenu
	case "up", "k":
		if m.knobCursor > 0 {
			m.knobCursor--
		}
	case "down", "j":
		if m.knobCursor < len(m.knobNames)-1 {
			m.knobCursor++
		}
	case "left", "h":
		m.nudge(-1)
	case "right", "l":
		m.nudge(1)
	case "s", "enter":
		if err := m.start(); err != nil {
			m.err = err
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "c":
		m.running = false
		m.state = stateKnobs
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "r":
		if err := m.start(); err != nil {
			m.err = err
		}
		return m, tea.ClearScreen
	case "+", "=":
		m.speed = math.Min(m.speed*2, 16)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 1)
	case "0":
		m.speed = 1
	case "up", "k":
		if m.knobCursor > 0 {
			m.knobCursor--
		}
	case "down", "j":
		if m.knobCursor < len(m.knobNames)-1 {
			m.knobCursor++
		}
	case "left", "h":
		m.nudge(-1)
	case "right", "l":
		m.nudge(1)
	}
	return m, nil
}

// loadKnobs reads the first driver's constants as the knob values. Only
// knobs that are moved are applied, to every driver.
func (m *model) loadKnobs() {
	m.knobs = make(map[string]float64)
	m.touched = make(map[string]bool)
	if len(m.cfg.Drivers) == 0 {
		return
	}
	s, err := m.cfg.Drivers[0].Settings()
	if err != nil {
		m.err = err
		return
	}
	m.knobs["gravity"] = s.Gravity
	m.knobs["length"] = s.Length
	m.knobs["frequency"] = s.Frequency
	m.knobs["angle_damping"] = s.AngleDamping
	m.knobs["length_damping"] = s.LengthDamping
	m.knobs["output_scale_x"] = s.OutputScale.X
	m.knobs["output_scale_y"] = s.OutputScale.Y
}

func (m *model) nudge(dir float64) {
	if len(m.knobNames) == 0 {
		return
	}
	name := m.knobNames[m.knobCursor]
	v := m.knobs[name] + dir*knobSteps[name]
	if name != "output_scale_x" && name != "output_scale_y" {
		v = math.Max(v, 0)
	}
	m.knobs[name] = v
	m.touched[name] = true
	m.applyKnob(name)
}

// applyKnob pushes a knob value to every driver of the running rig.
func (m *model) applyKnob(name string) {
	if m.rig == nil {
		return
	}
	for _, dn := range m.rig.Drivers {
		id, _ := m.rig.Puppet.Find(dn)
		if d, ok := m.rig.Puppet.Driver(id); ok {
			if err := d.SetParam(name, m.knobs[name]); err != nil {
				m.err = err
			}
		}
	}
}

func (m *model) start() error {
	rig, err := config.Build(m.cfg)
	if err != nil {
		return err
	}
	m.rig = rig
	m.exp = experiment.New(rig)
	for name := range m.touched {
		m.applyKnob(name)
	}
	m.history = make([]float64, 0, historyLen)
	m.diagnostics = 0
	m.frame = m.exp.Sample()
	m.lo, m.hi = m.bounds()
	m.speed = 1
	m.lastFrame = time.Time{}
	m.err = nil
	m.running = true
	m.paused = false
	m.state = stateSim
	return nil
}

func (m *model) step(frames int) {
	res, err := m.exp.Run(context.Background(), frames, m.cfg.Dt())
	if err != nil {
		m.err = err
		m.paused = true
		return
	}
	m.diagnostics += len(res.Diagnostics)
	for _, f := range res.Frames {
		m.frame = f
		if len(f.Drivers) > 0 {
			m.history = append(m.history, f.Drivers[0].Value.X)
		}
	}
	if len(m.history) > historyLen {
		m.history = m.history[len(m.history)-historyLen:]
	}
}

// bounds is the world box the canvas frames: every rest mesh and every
// driver's reach, plus a margin for motion.
func (m *model) bounds() (gg.Point, gg.Point) {
	lo := gg.Pt(math.Inf(1), math.Inf(1))
	hi := gg.Pt(math.Inf(-1), math.Inf(-1))
	grow := func(p gg.Point) {
		lo = gg.Pt(math.Min(lo.X, p.X), math.Min(lo.Y, p.Y))
		hi = gg.Pt(math.Max(hi.X, p.X), math.Max(hi.Y, p.Y))
	}
	p := m.rig.Puppet
	for name := range m.rig.Meshes {
		id, _ := p.Find(name)
		pts, err := p.WorldPoints(id)
		if err != nil {
			continue
		}
		for _, q := range pts {
			grow(q)
		}
	}
	for _, s := range m.frame.Drivers {
		grow(s.Anchor)
		grow(s.Bob)
		r := s.Bob.Distance(s.Anchor)
		grow(s.Anchor.Add(gg.Pt(-r, 0)))
		grow(s.Anchor.Add(gg.Pt(r, 0)))
	}
	if math.IsInf(lo.X, 1) {
		return gg.Pt(-100, -100), gg.Pt(100, 100)
	}
	pad := hi.Sub(lo).Mul(0.25)
	return lo.Sub(pad), hi.Add(pad)
}

// Run opens the menu of registered rigs.
func Run(registry *experiment.Registry) error {
	p := tea.NewProgram(newModel(registry), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RunRig opens the knobs of cfg directly.
func RunRig(registry *experiment.Registry, name string, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("no rig")
	}
	p := tea.NewProgram(newModel(registry).preselect(name, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
