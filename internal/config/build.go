package config

import (
	"fmt"
	"strings"

	"github.com/gogpu/gg"

	"github.com/nijigenerate/nicxlive-sub001/internal/deform"
	"github.com/nijigenerate/nicxlive-sub001/internal/driver"
	"github.com/nijigenerate/nicxlive-sub001/internal/param"
	"github.com/nijigenerate/nicxlive-sub001/internal/physics"
	"github.com/nijigenerate/nicxlive-sub001/internal/puppet"
	"github.com/nijigenerate/nicxlive-sub001/internal/veca"
)

// Rig is a built puppet together with the data needed to draw it.
type Rig struct {
	Config *Config
	Puppet *puppet.Puppet
	// Meshes holds the rest mesh of every deformable node by name.
	Meshes map[string]Mesh
	// Drivers lists driver node names in declaration order.
	Drivers []string
}

// PuppetEngine converts the engine section into puppet tunables.
func (c *Config) PuppetEngine() puppet.Engine {
	return puppet.Engine{
		MagnitudeLimit: float32(c.Engine.MagnitudeLimit),
		Timing: driver.Timing{
			SubStep:       c.Engine.SubStep,
			MaxFrameDelta: c.Engine.MaxFrameDelta,
		},
	}
}

func (c *Config) Env() driver.Env {
	return driver.Env{
		PixelsPerMeter: c.Physics.PixelsPerMeter,
		Gravity:        c.Physics.Gravity,
	}
}

func transform(t Vec, rot float64, scale *Vec) puppet.Transform {
	tr := puppet.IdentityTransform()
	tr.Translation = gg.Pt(t[0], t[1])
	tr.Rotation = rot
	if scale != nil {
		tr.Scale = gg.Pt(scale[0], scale[1])
	}
	return tr
}

// Build validates cfg and assembles a puppet from it.
func Build(cfg *Config, opts ...puppet.Option) (*Rig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts = append([]puppet.Option{puppet.WithEngine(cfg.PuppetEngine()), puppet.WithEnv(cfg.Env())}, opts...)
	p := puppet.New(opts...)
	rig := &Rig{Config: cfg, Puppet: p, Meshes: make(map[string]Mesh)}

	lookup := func(name string) puppet.NodeID {
		if name == "" {
			return puppet.Root
		}
		id, _ := p.Find(name)
		return id
	}

	for _, n := range cfg.Nodes {
		id, err := p.AddNode(n.Name, lookup(n.Parent), transform(n.Translation, n.Rotation, n.Scale))
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.Name, err)
		}
		if n.Mesh == nil {
			continue
		}
		mesh := n.Mesh.build()
		if _, err := p.AddDeformable(id, mesh.Vertices, nil); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.Name, err)
		}
		rig.Meshes[n.Name] = mesh
	}

	for _, pc := range cfg.Params {
		if err := addParam(p, pc); err != nil {
			return nil, fmt.Errorf("param %s: %w", pc.Name, err)
		}
	}

	for _, dc := range cfg.Drivers {
		if err := addDriver(p, dc, lookup); err != nil {
			return nil, fmt.Errorf("driver %s: %w", dc.Name, err)
		}
		rig.Drivers = append(rig.Drivers, dc.Name)
	}

	for _, pc := range cfg.Params {
		if err := addDrives(p, pc); err != nil {
			return nil, fmt.Errorf("param %s: %w", pc.Name, err)
		}
	}

	for _, mc := range cfg.Motion {
		fn, err := puppet.Easing(mc.Easing)
		if err != nil {
			return nil, fmt.Errorf("motion %s: %w", mc.Node, err)
		}
		axis := puppet.AxisX
		if mc.Axis == "y" {
			axis = puppet.AxisY
		}
		err = p.AddMotion(lookup(mc.Node), &puppet.Track{
			Axis:     axis,
			From:     float32(mc.From),
			To:       float32(mc.To),
			Duration: float32(mc.Duration),
			Yoyo:     mc.Yoyo,
			Ease:     fn,
		})
		if err != nil {
			return nil, fmt.Errorf("motion %s: %w", mc.Node, err)
		}
	}

	p.Reset()
	return rig, nil
}

func addParam(p *puppet.Puppet, pc ParamConfig) error {
	prm := param.New(pc.Name, pc.Vec2)
	prm.Min, prm.Max = gg.Pt(pc.Min[0], pc.Min[1]), gg.Pt(pc.Max[0], pc.Max[1])
	if prm.Min == prm.Max {
		prm.Min, prm.Max = gg.Pt(-1, -1), gg.Pt(1, 1)
	}
	prm.Value = gg.Pt(pc.Value[0], pc.Value[1])
	prm.Defaults = prm.Value
	if pc.Merge != "" {
		m, err := param.ParseMergeMode(pc.Merge)
		if err != nil {
			return err
		}
		prm.MergeMode = m
	}
	if _, err := p.AddParameter(prm); err != nil {
		return err
	}

	for _, bc := range pc.Bindings {
		id, _ := p.Find(bc.Node)
		part, ok := p.Deformable(id)
		if !ok {
			return fmt.Errorf("%w: %s", puppet.ErrNotDeformable, bc.Node)
		}
		b := param.NewDeformationBinding(prm, part, part.Vertices.Len())
		mode, err := parseInterpolation(bc.Interpolation)
		if err != nil {
			return err
		}
		b.SetInterpolation(mode)
		var weights []float32
		if bc.Falloff {
			weights = falloff(part.Vertices.Points())
		}
		for _, k := range bc.Keys {
			if !b.SetValue(k.X, k.Y, keyDeformation(part.Vertices.Len(), k.Offset, weights)) {
				return fmt.Errorf("%w: key (%d,%d) outside keypoint grid", ErrInvalid, k.X, k.Y)
			}
		}
		prm.Bind(b)
	}
	return nil
}

func keyDeformation(n int, off Vec, weights []float32) deform.Deformation {
	d := deform.Uniform(n, veca.Vec2{X: float32(off[0]), Y: float32(off[1])})
	if weights == nil {
		return d
	}
	for i, w := range weights {
		d.VertexOffsets.Set(i, d.VertexOffsets.At(i).Scale(w))
	}
	return d
}

func parseInterpolation(s string) (param.InterpolateMode, error) {
	switch strings.ToLower(s) {
	case "", "linear":
		return param.Linear, nil
	case "nearest":
		return param.Nearest, nil
	case "step":
		return param.Step, nil
	}
	return 0, fmt.Errorf("%w: unknown interpolation %q", ErrInvalid, s)
}

// Settings resolves a driver section against the driver defaults.
func (dc DriverConfig) Settings() (driver.Settings, error) {
	s := driver.DefaultSettings()
	if dc.Model != "" {
		k, err := physics.ParseKind(dc.Model)
		if err != nil {
			return s, err
		}
		s.Model = k
	}
	if dc.MapMode != "" {
		m, err := driver.ParseMapMode(dc.MapMode)
		if err != nil {
			return s, err
		}
		s.MapMode = m
	}
	s.LocalOnly = dc.LocalOnly
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&s.Gravity, dc.Gravity)
	set(&s.Length, dc.Length)
	set(&s.Frequency, dc.Frequency)
	set(&s.AngleDamping, dc.AngleDamping)
	set(&s.LengthDamping, dc.LengthDamping)
	if dc.OutputScale != nil {
		s.OutputScale = gg.Pt(dc.OutputScale[0], dc.OutputScale[1])
	}
	return s, nil
}

func addDriver(p *puppet.Puppet, dc DriverConfig, lookup func(string) puppet.NodeID) error {
	s, err := dc.Settings()
	if err != nil {
		return err
	}
	id, err := p.AddNode(dc.Name, lookup(dc.Parent), transform(dc.Translation, 0, nil))
	if err != nil {
		return err
	}
	target := puppet.NoParam
	if dc.Param != "" {
		prm, ok := p.ParamByName(dc.Param)
		if !ok {
			return fmt.Errorf("%w: %s", puppet.ErrUnknownParam, dc.Param)
		}
		target = prm.ID
	}
	_, err = p.AddDriver(id, s, target)
	return err
}

// addDrives binds a parameter to driver offsets. It runs after the drivers
// exist; the offsets it writes are reset by the driver every frame.
func addDrives(p *puppet.Puppet, pc ParamConfig) error {
	prm, _ := p.ParamByName(pc.Name)
	for _, dc := range pc.Drives {
		id, _ := p.Find(dc.Driver)
		d, ok := p.Driver(id)
		if !ok {
			return fmt.Errorf("%w: %s", puppet.ErrUnknownNode, dc.Driver)
		}
		neutral := 1.0
		if dc.Field == "length" {
			neutral = 0
		}
		field := dc.Field
		if err := d.SetOffset(field, neutral); err != nil {
			return err
		}
		b := param.NewValueBinding(prm, neutral, func(v float64) {
			_ = d.SetOffset(field, v)
		})
		for _, k := range dc.Keys {
			if !b.SetValue(k.X, k.Y, k.Value) {
				return fmt.Errorf("%w: key (%d,%d) outside keypoint grid", ErrInvalid, k.X, k.Y)
			}
		}
		prm.Bind(b)
	}
	return nil
}
