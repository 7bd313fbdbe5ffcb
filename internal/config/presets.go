package config

import "sort"

func f(v float64) *float64 { return &v }

// swayKeys bends a mesh sideways by amount at both ends of the x axis.
func swayKeys(amount float64) []KeyConfig {
	return []KeyConfig{
		{X: 0, Y: 0, Offset: Vec{-amount, 0}},
		{X: 0, Y: 1, Offset: Vec{-amount, 0}},
		{X: 1, Y: 0, Offset: Vec{amount, 0}},
		{X: 1, Y: 1, Offset: Vec{amount, 0}},
	}
}

func withDefaults(c *Config) *Config {
	d := DefaultConfig()
	c.Engine, c.Physics = d.Engine, d.Physics
	return c
}

// Presets build fresh configs so callers may modify the result.
var Presets = map[string]func() *Config{
	"hair": func() *Config {
		return withDefaults(&Config{
			Name: "hair",
			Nodes: []NodeConfig{
				{Name: "head", Translation: Vec{0, 0}},
				{Name: "bangs", Parent: "head", Translation: Vec{0, 20},
					Mesh: &MeshConfig{Grid: &GridConfig{Width: 40, Height: 120, Cols: 4, Rows: 6}}},
			},
			Params: []ParamConfig{{
				Name: "bangs_sway", Vec2: true, Min: Vec{-1, -1}, Max: Vec{1, 1},
				Bindings: []BindingConfig{{Node: "bangs", Falloff: true, Keys: swayKeys(30)}},
			}},
			Drivers: []DriverConfig{{
				Name: "bangs_physics", Parent: "head", Translation: Vec{0, 20},
				Param: "bangs_sway", Model: "pendulum", Length: f(120),
			}},
			Motion: []MotionConfig{{Node: "head", Axis: "x", From: -40, To: 40, Duration: 1.2, Easing: "in_out_sine", Yoyo: true}},
		})
	},
	"spring": func() *Config {
		return withDefaults(&Config{
			Name: "spring",
			Nodes: []NodeConfig{
				{Name: "body"},
				{Name: "antenna", Parent: "body",
					Mesh: &MeshConfig{Grid: &GridConfig{Width: 10, Height: 60, Cols: 1, Rows: 5}}},
			},
			Params: []ParamConfig{{
				Name: "antenna_bounce", Vec2: true, Min: Vec{-1, -1}, Max: Vec{1, 1},
				Bindings: []BindingConfig{{Node: "antenna", Falloff: true, Keys: []KeyConfig{
					{X: 0, Y: 0, Offset: Vec{-20, -15}},
					{X: 1, Y: 0, Offset: Vec{20, -15}},
					{X: 0, Y: 1, Offset: Vec{-20, 15}},
					{X: 1, Y: 1, Offset: Vec{20, 15}},
				}}},
			}},
			Drivers: []DriverConfig{{
				Name: "antenna_physics", Parent: "body",
				Param: "antenna_bounce", Model: "spring_pendulum", MapMode: "xy",
				Length: f(60), Frequency: f(2), AngleDamping: f(0.3), LengthDamping: f(0.3),
			}},
			Motion: []MotionConfig{{Node: "body", Axis: "y", From: 0, To: 30, Duration: 0.8, Easing: "out_bounce", Yoyo: true}},
		})
	},
	"sway": func() *Config {
		return withDefaults(&Config{
			Name: "sway",
			Nodes: []NodeConfig{
				{Name: "torso"},
				{Name: "left_tail", Parent: "torso", Translation: Vec{-30, 0},
					Mesh: &MeshConfig{Grid: &GridConfig{Width: 20, Height: 90, Cols: 2, Rows: 4}}},
				{Name: "right_tail", Parent: "torso", Translation: Vec{30, 0},
					Mesh: &MeshConfig{Grid: &GridConfig{Width: 20, Height: 90, Cols: 2, Rows: 4}}},
			},
			Params: []ParamConfig{
				{Name: "left_sway", Vec2: true, Min: Vec{-1, -1}, Max: Vec{1, 1},
					Bindings: []BindingConfig{{Node: "left_tail", Falloff: true, Keys: swayKeys(25)}}},
				{Name: "right_sway", Vec2: true, Min: Vec{-1, -1}, Max: Vec{1, 1},
					Bindings: []BindingConfig{{Node: "right_tail", Falloff: true, Interpolation: "nearest", Keys: swayKeys(25)}}},
			},
			Drivers: []DriverConfig{
				{Name: "left_physics", Parent: "torso", Translation: Vec{-30, 0}, Param: "left_sway", Length: f(90)},
				{Name: "right_physics", Parent: "torso", Translation: Vec{30, 0}, Param: "right_sway",
					Length: f(90), LocalOnly: true, AngleDamping: f(0.8)},
			},
			Motion: []MotionConfig{
				{Node: "torso", Axis: "x", From: -25, To: 25, Duration: 2, Easing: "in_out_quad", Yoyo: true},
			},
		})
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve loads src as a preset name or, failing that, as a rig file.
func Resolve(src string) (*Config, error) {
	if cfg := GetPreset(src); cfg != nil {
		return cfg, nil
	}
	return Load(src)
}
