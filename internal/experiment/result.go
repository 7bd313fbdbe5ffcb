package experiment

import (
	"fmt"
	"math"

	"github.com/nijigenerate/nicxlive-sub001/internal/diag"
	"github.com/nijigenerate/nicxlive-sub001/internal/metrics"
)

type Result struct {
	Name        string
	Dt          float64
	Drivers     []string
	Frames      []metrics.Frame
	Metrics     map[string]float64
	Diagnostics []diag.Event
	StepsTaken  int
}

var driverColumns = []string{"value_x", "value_y", "angle", "bob_x", "bob_y", "energy"}

// Columns names the trace columns: time and per-frame totals, then one
// group per driver.
func (r *Result) Columns() []string {
	cols := []string{"time", "max_deformation", "diagnostics"}
	for _, d := range r.Drivers {
		for _, c := range driverColumns {
			cols = append(cols, fmt.Sprintf("%s.%s", d, c))
		}
	}
	return cols
}

// Rows flattens every frame in Columns order. Drivers missing from a frame
// and unknown energies are written as zeros.
func (r *Result) Rows() [][]float64 {
	rows := make([][]float64, len(r.Frames))
	for i, f := range r.Frames {
		row := []float64{f.Time, f.MaxDeformation, float64(f.Diagnostics)}
		byName := make(map[string]metrics.DriverSample, len(f.Drivers))
		for _, s := range f.Drivers {
			byName[s.Name] = s
		}
		for _, d := range r.Drivers {
			s := byName[d]
			energy := s.Energy
			if math.IsNaN(energy) {
				energy = 0
			}
			row = append(row, s.Value.X, s.Value.Y, s.Angle, s.Bob.X, s.Bob.Y, energy)
		}
		rows[i] = row
	}
	return rows
}

// Series returns one column of the trace, or nil for an unknown column.
func (r *Result) Series(column string) []float64 {
	idx := -1
	for i, c := range r.Columns() {
		if c == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	rows := r.Rows()
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = row[idx]
	}
	return out
}
