// Package driver turns a simulated pendulum into animation parameter
// values once per frame.
package driver

import (
	"fmt"
	"time"

	"github.com/gogpu/gg"

	"github.com/nijigenerate/nicxlive-sub001/internal/diag"
	"github.com/nijigenerate/nicxlive-sub001/internal/dynamo"
	"github.com/nijigenerate/nicxlive-sub001/internal/param"
	"github.com/nijigenerate/nicxlive-sub001/internal/physics"
)

const (
	DefaultSubStep       = 0.01
	DefaultMaxFrameDelta = 10.0
	// DefaultMissingParamInterval rate-limits missing parameter reports.
	DefaultMissingParamInterval = 5 * time.Second
)

// Settings are the authored constants of a driver.
type Settings struct {
	Model         physics.Kind
	MapMode       MapMode
	LocalOnly     bool
	Gravity       float64
	Length        float64
	Frequency     float64
	AngleDamping  float64
	LengthDamping float64
	OutputScale   gg.Point
}

func DefaultSettings() Settings {
	return Settings{
		Model:         physics.KindPendulum,
		MapMode:       AngleLength,
		Gravity:       1,
		Length:        100,
		Frequency:     1,
		AngleDamping:  0.5,
		LengthDamping: 0.5,
		OutputScale:   gg.Pt(1, 1),
	}
}

// Offsets perturb Settings for one frame. Length is added; every other
// field multiplies.
type Offsets struct {
	Gravity       float64
	Length        float64
	Frequency     float64
	AngleDamping  float64
	LengthDamping float64
	OutputScale   gg.Point
}

// NeutralOffsets leave Settings unchanged.
func NeutralOffsets() Offsets {
	return Offsets{
		Gravity:       1,
		Frequency:     1,
		AngleDamping:  1,
		LengthDamping: 1,
		OutputScale:   gg.Pt(1, 1),
	}
}

// Env is the puppet-wide physics environment.
type Env struct {
	PixelsPerMeter float64
	Gravity        float64
}

func DefaultEnv() Env {
	return Env{PixelsPerMeter: 1000, Gravity: 9.8}
}

// Timing controls the fixed-step loop.
type Timing struct {
	SubStep       float64
	MaxFrameDelta float64
}

func DefaultTiming() Timing {
	return Timing{SubStep: DefaultSubStep, MaxFrameDelta: DefaultMaxFrameDelta}
}

// Pose exposes the owning node's current transforms.
type Pose interface {
	Transform() gg.Matrix
	TransformLocal() gg.Matrix
}

// Target is the parameter a driver writes to.
type Target interface {
	PushOffset(v gg.Point, mode param.MergeMode)
	Update()
}

// Driver owns one physics model and maps its bob into a parameter.
type Driver struct {
	Name     string
	Settings Settings
	Offsets  Offsets
	Env      Env
	Timing   Timing

	sink    diag.Sink
	missing *diag.Limiter

	model           physics.Model
	transform       gg.Matrix
	anchor          gg.Point
	anchorRefreshed bool
	output          gg.Point
	value           gg.Point
	pushed          bool
}

// New returns a driver with neutral offsets and default environment.
func New(name string, s Settings) *Driver {
	d := &Driver{
		Name:      name,
		Settings:  s,
		Offsets:   NeutralOffsets(),
		Env:       DefaultEnv(),
		Timing:    DefaultTiming(),
		transform: gg.Identity(),
	}
	d.SetSink(nil)
	return d
}

// SetSink routes diagnostics to s. Missing parameter reports are
// rate-limited per driver.
func (d *Driver) SetSink(s diag.Sink) {
	d.sink = diag.Or(s)
	d.missing = diag.RateLimit(d.sink, DefaultMissingParamInterval, diag.KindMissingParameter)
}

func (d *Driver) Gravity() float64 {
	return d.Settings.Gravity * d.Offsets.Gravity * d.Env.Gravity * d.Env.PixelsPerMeter
}

func (d *Driver) Length() float64 {
	return d.Settings.Length + d.Offsets.Length
}

func (d *Driver) Frequency() float64 {
	return d.Settings.Frequency * d.Offsets.Frequency
}

func (d *Driver) AngleDamping() float64 {
	return d.Settings.AngleDamping * d.Offsets.AngleDamping
}

func (d *Driver) LengthDamping() float64 {
	return d.Settings.LengthDamping * d.Offsets.LengthDamping
}

// OutputScale is the effective per-axis output multiplier.
func (d *Driver) OutputScale() gg.Point {
	return gg.Pt(d.Settings.OutputScale.X*d.Offsets.OutputScale.X, d.Settings.OutputScale.Y*d.Offsets.OutputScale.Y)
}

func (d *Driver) Model() physics.Model { return d.model }
func (d *Driver) Anchor() gg.Point     { return d.anchor }
func (d *Driver) Output() gg.Point     { return d.output }

// Value returns the last parameter value pushed, and whether the last
// frame pushed one.
func (d *Driver) Value() (gg.Point, bool) { return d.value, d.pushed }

// Begin resets the offsets and marks the anchor stale.
func (d *Driver) Begin() {
	d.Offsets = NeutralOffsets()
	d.anchorRefreshed = false
}

// UpdateAnchor captures the anchor transform for this frame.
func (d *Driver) UpdateAnchor(p Pose) {
	if d.Settings.LocalOnly {
		d.transform = p.TransformLocal()
	} else {
		d.transform = p.Transform()
	}
	d.anchor = d.transform.TransformPoint(gg.Pt(0, 0))
	d.anchorRefreshed = true
	if d.model != nil {
		d.model.SetAnchor(d.anchor)
	}
}

func (d *Driver) ensureModel() {
	if d.model != nil && d.model.Kind() == d.Settings.Model {
		return
	}
	m, err := physics.New(d.Settings.Model, d, d.anchor, d.sink, d.Name)
	if err != nil {
		m, _ = physics.New(physics.KindPendulum, d, d.anchor, d.sink, d.Name)
	}
	d.model = m
}

// UpdateDriver advances the model by dt and writes the mapped value to
// target. A nil target skips the write and reports a missing parameter.
func (d *Driver) UpdateDriver(dt float64, pose Pose, target Target) {
	if !d.anchorRefreshed && pose != nil {
		d.UpdateAnchor(pose)
	}
	d.ensureModel()

	h := dt
	if !dynamo.Finite(h) || h < 0 {
		h = 0
	}
	h = min(h, d.Timing.MaxFrameDelta)
	step := d.Timing.SubStep
	if step <= 0 {
		step = DefaultSubStep
	}
	for h > step {
		d.model.Tick(step)
		h -= step
	}
	if h > 0 {
		d.model.Tick(h)
	}
	d.output = d.model.Output()

	d.UpdateOutputs(target)
}

// UpdateOutputs maps the current bob into parameter space and pushes it
// with a forced merge. Any non-finite intermediate aborts the push.
func (d *Driver) UpdateOutputs(target Target) {
	d.pushed = false
	if target == nil {
		d.missing.Report(diag.Event{Kind: diag.KindMissingParameter, Tag: "driver.param", Node: d.Name})
		return
	}

	local := d.transform.Invert().TransformPoint(d.output)
	if !d.finite("output.local", local) {
		return
	}
	localAngle := local.Normalize()

	relLength := d.output.Distance(d.anchor) / d.Length()
	if !d.finite("output.relLength", gg.Pt(relLength, 0)) {
		return
	}

	v := d.Settings.MapMode.Map(localAngle, relLength)
	scale := d.OutputScale()
	v = gg.Pt(v.X*scale.X, v.Y*scale.Y)
	if !d.finite("output.value", v) {
		return
	}

	target.PushOffset(v, param.Forced)
	target.Update()
	d.value = v
	d.pushed = true
}

func (d *Driver) finite(tag string, p gg.Point) bool {
	if dynamo.FinitePoint(p) {
		return true
	}
	v := p.X
	if dynamo.Finite(v) {
		v = p.Y
	}
	d.sink.Report(diag.Event{Kind: diag.KindInvalidPhysics, Tag: tag, Node: d.Name, Value: v})
	return false
}

// Reset restores neutral offsets and rebuilds the model at rest.
func (d *Driver) Reset() {
	d.Offsets = NeutralOffsets()
	d.model = nil
	d.ensureModel()
	d.output = d.model.Output()
}

// GetParams returns the authored constants by name.
func (d *Driver) GetParams() map[string]float64 {
	return map[string]float64{
		"gravity":        d.Settings.Gravity,
		"length":         d.Settings.Length,
		"frequency":      d.Settings.Frequency,
		"angle_damping":  d.Settings.AngleDamping,
		"length_damping": d.Settings.LengthDamping,
		"output_scale_x": d.Settings.OutputScale.X,
		"output_scale_y": d.Settings.OutputScale.Y,
	}
}

// SetParam sets an authored constant by name.
func (d *Driver) SetParam(name string, value float64) error {
	switch name {
	case "gravity":
		d.Settings.Gravity = value
	case "length":
		d.Settings.Length = value
	case "frequency":
		d.Settings.Frequency = value
	case "angle_damping":
		d.Settings.AngleDamping = value
	case "length_damping":
		d.Settings.LengthDamping = value
	case "output_scale_x":
		d.Settings.OutputScale.X = value
	case "output_scale_y":
		d.Settings.OutputScale.Y = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

// SetOffset sets one transient offset by name. It is meant to be called
// between Begin and UpdateDriver, typically from a parameter binding.
func (d *Driver) SetOffset(name string, value float64) error {
	switch name {
	case "gravity":
		d.Offsets.Gravity = value
	case "length":
		d.Offsets.Length = value
	case "frequency":
		d.Offsets.Frequency = value
	case "angle_damping":
		d.Offsets.AngleDamping = value
	case "length_damping":
		d.Offsets.LengthDamping = value
	case "output_scale_x":
		d.Offsets.OutputScale.X = value
	case "output_scale_y":
		d.Offsets.OutputScale.Y = value
	default:
		return fmt.Errorf("unknown offset: %s", name)
	}
	return nil
}
