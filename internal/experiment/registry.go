package experiment

import (
	"fmt"
	"sort"

	"github.com/nijigenerate/nicxlive-sub001/internal/config"
	"github.com/nijigenerate/nicxlive-sub001/internal/metrics"
)

// Registry maps rig names to config builders.
type Registry struct {
	rigs map[string]func() *config.Config
}

func NewRegistry() *Registry {
	r := &Registry{rigs: make(map[string]func() *config.Config)}
	for name, build := range config.Presets {
		r.rigs[name] = build
	}
	return r
}

func (r *Registry) Register(name string, build func() *config.Config) {
	r.rigs[name] = build
}

func (r *Registry) GetRig(name string) (*config.Config, error) {
	fn, ok := r.rigs[name]
	if !ok {
		return nil, fmt.Errorf("unknown rig: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListRigs() []string {
	names := make([]string, 0, len(r.rigs))
	for name := range r.rigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load resolves src as a registered rig or a rig file.
func (r *Registry) Load(src string) (*config.Config, error) {
	if cfg, err := r.GetRig(src); err == nil {
		return cfg, nil
	}
	return config.Load(src)
}

func (r *Registry) DefaultMetrics(cfg *config.Config) []metrics.Metric {
	return metrics.Defaults(cfg.Engine.MagnitudeLimit)
}
