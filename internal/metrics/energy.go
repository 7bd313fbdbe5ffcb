package metrics

import (
	"math"
)

// EnergyDecay is the ratio of the final to the peak total model energy,
// summed over drivers that report one. A damped rig that comes to rest
// tends to zero; a value above one means energy was gained.
type EnergyDecay struct {
	name    string
	peak    float64
	current float64
	samples int
}

func NewEnergyDecay() *EnergyDecay {
	return &EnergyDecay{name: "energy_decay"}
}

func (e *EnergyDecay) Name() string { return e.name }

func (e *EnergyDecay) Observe(f Frame) {
	total, seen := 0.0, false
	for _, d := range f.Drivers {
		if math.IsNaN(d.Energy) {
			continue
		}
		total += d.Energy
		seen = true
	}
	if !seen {
		return
	}
	e.current = total
	e.peak = math.Max(e.peak, total)
	e.samples++
}

func (e *EnergyDecay) Value() float64 {
	if e.samples == 0 || e.peak == 0 {
		return 0
	}
	return e.current / e.peak
}

func (e *EnergyDecay) Reset() {
	e.peak = 0
	e.current = 0
	e.samples = 0
}
