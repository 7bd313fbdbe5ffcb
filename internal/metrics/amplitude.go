package metrics

import "math"

// Amplitude is the largest absolute parameter x pushed by any driver.
type Amplitude struct {
	peak float64
}

func NewAmplitude() *Amplitude { return &Amplitude{} }

func (a *Amplitude) Name() string { return "amplitude" }

func (a *Amplitude) Observe(f Frame) {
	for _, d := range f.Drivers {
		if d.Pushed {
			a.peak = math.Max(a.peak, math.Abs(d.Value.X))
		}
	}
}

func (a *Amplitude) Value() float64 { return a.peak }
func (a *Amplitude) Reset()         { a.peak = 0 }

type MaxDeformation struct {
	peak float64
}

func NewMaxDeformation() *MaxDeformation { return &MaxDeformation{} }

func (m *MaxDeformation) Name() string { return "max_deformation" }

func (m *MaxDeformation) Observe(f Frame) {
	m.peak = math.Max(m.peak, f.MaxDeformation)
}

func (m *MaxDeformation) Value() float64 { return m.peak }
func (m *MaxDeformation) Reset()         { m.peak = 0 }

// SettleTime is the time of the last frame in which any driver's swing
// exceeded the threshold angle.
type SettleTime struct {
	threshold float64
	last      float64
}

func NewSettleTime(threshold float64) *SettleTime {
	return &SettleTime{threshold: threshold}
}

func (s *SettleTime) Name() string { return "settle_time" }

func (s *SettleTime) Observe(f Frame) {
	for _, d := range f.Drivers {
		if math.Abs(d.Angle) > s.threshold {
			s.last = f.Time
			return
		}
	}
}

func (s *SettleTime) Value() float64 { return s.last }
func (s *SettleTime) Reset()         { s.last = 0 }
