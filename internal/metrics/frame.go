// Package metrics summarises a run of a puppet frame by frame.
package metrics

import (
	"github.com/gogpu/gg"
)

// DriverSample is the state of one driver at the end of a frame.
type DriverSample struct {
	Name   string
	Anchor gg.Point
	Bob    gg.Point
	// Angle is the bob's swing from straight down, in radians.
	Angle  float64
	Value  gg.Point
	Pushed bool
	// Energy is NaN for models that do not report one.
	Energy float64
}

// Frame is everything a metric may observe after one puppet update.
type Frame struct {
	Index          int
	Time           float64
	Drivers        []DriverSample
	MaxDeformation float64
	Diagnostics    int
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

// Defaults returns the metrics recorded for every run.
func Defaults(magnitudeLimit float64) []Metric {
	return []Metric{
		NewAmplitude(),
		NewMaxDeformation(),
		NewStability(magnitudeLimit),
		NewEnergyDecay(),
		NewSettleTime(0.01),
	}
}
