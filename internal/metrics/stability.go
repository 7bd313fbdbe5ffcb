package metrics

import (
	"math"
)

// Stability is the fraction of frames with finite outputs, no diagnostics
// and deformation within the threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f Frame) {
	s.samples++
	if f.Diagnostics > 0 || f.MaxDeformation > s.threshold {
		s.violations++
		return
	}
	for _, d := range f.Drivers {
		if math.IsNaN(d.Value.X) || math.IsNaN(d.Value.Y) || math.IsInf(d.Value.X, 0) || math.IsInf(d.Value.Y, 0) {
			s.violations++
			return
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
