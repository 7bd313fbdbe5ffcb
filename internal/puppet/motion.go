package puppet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Axis selects which translation coordinate a track animates.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in_out_quad":  ease.InOutQuad,
	"in_out_sine":  ease.InOutSine,
	"in_out_cubic": ease.InOutCubic,
	"out_cubic":    ease.OutCubic,
	"out_bounce":   ease.OutBounce,
	"out_elastic":  ease.OutElastic,
}

// Easing looks up an easing function by name.
func Easing(name string) (ease.TweenFunc, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		n = "linear"
	}
	fn, ok := easings[n]
	if !ok {
		return nil, fmt.Errorf("unknown easing: %s", name)
	}
	return fn, nil
}

// Easings lists the known easing names.
func Easings() []string {
	out := make([]string, 0, len(easings))
	for n := range easings {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Track tweens one translation axis of a node between two values.
type Track struct {
	Axis     Axis
	From, To float32
	Duration float32
	Yoyo     bool
	Ease     ease.TweenFunc

	tween   *gween.Tween
	forward bool
	done    bool
}

func (t *Track) start() {
	from, to := t.From, t.To
	if !t.forward {
		from, to = to, from
	}
	fn := t.Ease
	if fn == nil {
		fn = ease.Linear
	}
	t.tween = gween.New(from, to, t.Duration, fn)
}

// advance returns the tracked value after dt seconds.
func (t *Track) advance(dt float32) float32 {
	if t.tween == nil {
		t.forward = true
		t.start()
	}
	v, finished := t.tween.Update(dt)
	if finished {
		if t.Yoyo {
			t.forward = !t.forward
			t.start()
		} else {
			t.done = true
		}
	}
	return v
}

// Done reports whether a non-repeating track has finished.
func (t *Track) Done() bool { return t.done }

// MotionData drives a node's translation from tweens, moving the anchor of
// any driver below it.
type MotionData struct {
	Tracks []*Track
}
