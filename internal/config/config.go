package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSubStep        = 0.01
	DefaultMaxFrameDelta  = 10.0
	DefaultMagnitudeLimit = 50.0
	DefaultFPS            = 60
	DefaultDuration       = 10.0
	DefaultPixelsPerMeter = 1000.0
	DefaultGravity        = 9.8
)

var ErrInvalid = errors.New("config: invalid rig")

// Vec is a 2D value written as a [x, y] flow sequence.
type Vec [2]float64

type Config struct {
	Name    string         `yaml:"name"`
	Engine  EngineConfig   `yaml:"engine"`
	Physics PhysicsConfig  `yaml:"physics"`
	Nodes   []NodeConfig   `yaml:"nodes"`
	Params  []ParamConfig  `yaml:"params"`
	Drivers []DriverConfig `yaml:"drivers"`
	Motion  []MotionConfig `yaml:"motion,omitempty"`
}

type EngineConfig struct {
	SubStep        float64 `yaml:"substep"`
	MaxFrameDelta  float64 `yaml:"max_frame_delta"`
	MagnitudeLimit float64 `yaml:"magnitude_limit"`
	FPS            int     `yaml:"fps"`
	Duration       float64 `yaml:"duration"`
}

type PhysicsConfig struct {
	PixelsPerMeter float64 `yaml:"pixels_per_meter"`
	Gravity        float64 `yaml:"gravity"`
}

type NodeConfig struct {
	Name        string      `yaml:"name"`
	Parent      string      `yaml:"parent,omitempty"`
	Translation Vec         `yaml:"translation,flow"`
	Rotation    float64     `yaml:"rotation,omitempty"`
	Scale       *Vec        `yaml:"scale,omitempty,flow"`
	Mesh        *MeshConfig `yaml:"mesh,omitempty"`
}

// MeshConfig gives either a grid to generate or explicit vertices.
type MeshConfig struct {
	Grid     *GridConfig `yaml:"grid,omitempty"`
	Vertices []Vec       `yaml:"vertices,omitempty,flow"`
}

type GridConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Cols   int     `yaml:"cols"`
	Rows   int     `yaml:"rows"`
}

type ParamConfig struct {
	Name     string          `yaml:"name"`
	Vec2     bool            `yaml:"vec2"`
	Min      Vec             `yaml:"min,flow"`
	Max      Vec             `yaml:"max,flow"`
	Value    Vec             `yaml:"value,flow"`
	Merge    string          `yaml:"merge,omitempty"`
	Bindings []BindingConfig `yaml:"bindings,omitempty"`
	// Drives perturb driver constants for the frame.
	Drives []DriveConfig `yaml:"drives,omitempty"`
}

// BindingConfig deforms Node by a uniform offset per keypoint. With Falloff
// the offset grows from nothing at the top of the mesh to full at the
// bottom.
type BindingConfig struct {
	Node          string      `yaml:"node"`
	Interpolation string      `yaml:"interpolation,omitempty"`
	Falloff       bool        `yaml:"falloff,omitempty"`
	Keys          []KeyConfig `yaml:"keys"`
}

// DriveConfig interpolates a value per keypoint into one offset of a
// driver: length is added, every other field multiplies.
type DriveConfig struct {
	Driver string     `yaml:"driver"`
	Field  string     `yaml:"field"`
	Keys   []ValueKey `yaml:"keys"`
}

type ValueKey struct {
	X     int     `yaml:"x"`
	Y     int     `yaml:"y"`
	Value float64 `yaml:"value"`
}

type KeyConfig struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Offset Vec `yaml:"offset,flow"`
}

// DriverConfig creates a node called Name under Parent running a physics
// driver that writes Param. Unset constants take the driver defaults.
type DriverConfig struct {
	Name          string   `yaml:"name"`
	Parent        string   `yaml:"parent,omitempty"`
	Translation   Vec      `yaml:"translation,flow"`
	Param         string   `yaml:"param,omitempty"`
	Model         string   `yaml:"model,omitempty"`
	MapMode       string   `yaml:"map_mode,omitempty"`
	LocalOnly     bool     `yaml:"local_only,omitempty"`
	Gravity       *float64 `yaml:"gravity,omitempty"`
	Length        *float64 `yaml:"length,omitempty"`
	Frequency     *float64 `yaml:"frequency,omitempty"`
	AngleDamping  *float64 `yaml:"angle_damping,omitempty"`
	LengthDamping *float64 `yaml:"length_damping,omitempty"`
	OutputScale   *Vec     `yaml:"output_scale,omitempty,flow"`
}

// MotionConfig tweens one translation axis of Node.
type MotionConfig struct {
	Node     string  `yaml:"node"`
	Axis     string  `yaml:"axis"`
	From     float64 `yaml:"from"`
	To       float64 `yaml:"to"`
	Duration float64 `yaml:"duration"`
	Easing   string  `yaml:"easing,omitempty"`
	Yoyo     bool    `yaml:"yoyo,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			SubStep:        DefaultSubStep,
			MaxFrameDelta:  DefaultMaxFrameDelta,
			MagnitudeLimit: DefaultMagnitudeLimit,
			FPS:            DefaultFPS,
			Duration:       DefaultDuration,
		},
		Physics: PhysicsConfig{
			PixelsPerMeter: DefaultPixelsPerMeter,
			Gravity:        DefaultGravity,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a rig over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Dt is the frame interval implied by the engine fps.
func (c *Config) Dt() float64 {
	if c.Engine.FPS <= 0 {
		return 1.0 / DefaultFPS
	}
	return 1 / float64(c.Engine.FPS)
}

// Frames is the number of frames in the configured duration.
func (c *Config) Frames() int {
	return int(math.Round(c.Engine.Duration / c.Dt()))
}

// Validate checks names and references. Model, map mode, merge mode and
// easing names are checked when the rig is built.
func (c *Config) Validate() error {
	if c.Engine.SubStep <= 0 {
		return fmt.Errorf("%w: substep must be positive", ErrInvalid)
	}
	if c.Engine.MaxFrameDelta <= 0 {
		return fmt.Errorf("%w: max_frame_delta must be positive", ErrInvalid)
	}
	if c.Engine.Duration < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalid)
	}

	nodes := make(map[string]bool)
	for _, n := range c.Nodes {
		if n.Name == "" {
			return fmt.Errorf("%w: node without name", ErrInvalid)
		}
		if nodes[n.Name] {
			return fmt.Errorf("%w: duplicate node %s", ErrInvalid, n.Name)
		}
		if n.Parent != "" && !nodes[n.Parent] {
			return fmt.Errorf("%w: node %s: parent %s must be declared first", ErrInvalid, n.Name, n.Parent)
		}
		if n.Mesh != nil && n.Mesh.Grid == nil && len(n.Mesh.Vertices) == 0 {
			return fmt.Errorf("%w: node %s: empty mesh", ErrInvalid, n.Name)
		}
		nodes[n.Name] = true
	}

	params := make(map[string]bool)
	for _, p := range c.Params {
		if p.Name == "" || params[p.Name] {
			return fmt.Errorf("%w: bad or duplicate param %q", ErrInvalid, p.Name)
		}
		params[p.Name] = true
		for _, b := range p.Bindings {
			if !nodes[b.Node] {
				return fmt.Errorf("%w: param %s binds unknown node %s", ErrInvalid, p.Name, b.Node)
			}
		}
	}

	drivers := make(map[string]bool)
	for _, d := range c.Drivers {
		if d.Name == "" || nodes[d.Name] {
			return fmt.Errorf("%w: bad or duplicate driver %q", ErrInvalid, d.Name)
		}
		drivers[d.Name] = true
		if d.Parent != "" && !nodes[d.Parent] {
			return fmt.Errorf("%w: driver %s: unknown parent %s", ErrInvalid, d.Name, d.Parent)
		}
		if d.Param != "" && !params[d.Param] {
			return fmt.Errorf("%w: driver %s: unknown param %s", ErrInvalid, d.Name, d.Param)
		}
		nodes[d.Name] = true
	}

	for _, p := range c.Params {
		for _, dr := range p.Drives {
			if !drivers[dr.Driver] {
				return fmt.Errorf("%w: param %s drives unknown driver %s", ErrInvalid, p.Name, dr.Driver)
			}
		}
	}

	for _, m := range c.Motion {
		if !nodes[m.Node] {
			return fmt.Errorf("%w: motion on unknown node %s", ErrInvalid, m.Node)
		}
		if m.Axis != "x" && m.Axis != "y" {
			return fmt.Errorf("%w: motion axis must be x or y, got %q", ErrInvalid, m.Axis)
		}
		if m.Duration <= 0 {
			return fmt.Errorf("%w: motion on %s needs a positive duration", ErrInvalid, m.Node)
		}
	}
	return nil
}
