package driver

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/gg"
)

var ErrUnknownMapMode = errors.New("driver: unknown map mode")

// MapMode selects how the bob position becomes a parameter value.
type MapMode int

const (
	AngleLength MapMode = iota
	XY
	LengthAngle
	YX
)

var mapModeNames = []string{"angle_length", "xy", "length_angle", "yx"}

func (m MapMode) String() string {
	if int(m) >= 0 && int(m) < len(mapModeNames) {
		return mapModeNames[m]
	}
	return fmt.Sprintf("map(%d)", int(m))
}

func ParseMapMode(s string) (MapMode, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.NewReplacer("-", "_", " ", "_").Replace(n)
	switch n {
	case "anglelength":
		n = "angle_length"
	case "lengthangle":
		n = "length_angle"
	}
	for i, name := range mapModeNames {
		if name == n {
			return MapMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownMapMode, s)
}

// MapModes lists the accepted names.
func MapModes() []string {
	return append([]string(nil), mapModeNames...)
}

// Map converts a unit direction in driver space and a length ratio into a
// parameter value.
func (m MapMode) Map(localAngle gg.Point, relLength float64) gg.Point {
	switch m {
	case XY:
		return gg.Pt(localAngle.X*relLength, 1-localAngle.Y*relLength)
	case YX:
		return gg.Pt(1-localAngle.Y*relLength, localAngle.X*relLength)
	case LengthAngle:
		return gg.Pt(relLength, math.Atan2(-localAngle.X, localAngle.Y)/math.Pi)
	default:
		return gg.Pt(math.Atan2(-localAngle.X, localAngle.Y)/math.Pi, relLength)
	}
}
