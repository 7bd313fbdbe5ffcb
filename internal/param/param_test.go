package param

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gg"

	"github.com/nijigenerate/nicxlive-sub001/internal/deform"
	"github.com/nijigenerate/nicxlive-sub001/internal/veca"
)

func near(a, b gg.Point) bool {
	return math.Abs(a.X-b.X) < 1e-6 && math.Abs(a.Y-b.Y) < 1e-6
}

func TestMergeModes(t *testing.T) {
	tests := []struct {
		name   string
		pushes []struct {
			v    gg.Point
			mode MergeMode
		}
		want gg.Point
	}{
		{
			name: "additive sums onto value",
			pushes: []struct {
				v    gg.Point
				mode MergeMode
			}{{gg.Pt(0.1, 0), Additive}, {gg.Pt(0.2, 0.5), Additive}},
			want: gg.Pt(0.8, 1),
		},
		{
			name: "forced overrides later additive",
			pushes: []struct {
				v    gg.Point
				mode MergeMode
			}{{gg.Pt(0.1, 0.1), Forced}, {gg.Pt(5, 5), Additive}},
			want: gg.Pt(0.1, 0.1),
		},
		{
			name: "forced overrides earlier additive",
			pushes: []struct {
				v    gg.Point
				mode MergeMode
			}{{gg.Pt(5, 5), Additive}, {gg.Pt(-0.3, 0.2), Forced}},
			want: gg.Pt(-0.3, 0.2),
		},
		{
			name: "multiplicative scales",
			pushes: []struct {
				v    gg.Point
				mode MergeMode
			}{{gg.Pt(2, 0), Multiplicative}},
			want: gg.Pt(1, 0),
		},
		{
			name: "weighted averages",
			pushes: []struct {
				v    gg.Point
				mode MergeMode
			}{{gg.Pt(1, 1), Weighted}, {gg.Pt(0, 0), Weighted}},
			want: gg.Pt(1, 1),
		},
		{
			name: "passthrough uses parameter mode",
			pushes: []struct {
				v    gg.Point
				mode MergeMode
			}{{gg.Pt(0.25, 0), Passthrough}},
			want: gg.Pt(0.75, 0.5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("head", true)
			p.Value = gg.Pt(0.5, 0.5)
			p.BeginFrame()
			for _, push := range tt.pushes {
				p.PushOffset(push.v, push.mode)
			}
			p.Update()
			if !near(p.Latest(), tt.want) {
				t.Errorf("expected %v, got %v", tt.want, p.Latest())
			}
			if p.Value != gg.Pt(0.5, 0.5) {
				t.Errorf("authored value changed to %v", p.Value)
			}
		})
	}
}

func TestBeginFrameClearsOffsets(t *testing.T) {
	p := New("x", false)
	p.Value = gg.Pt(0.2, 0)
	p.PushOffset(gg.Pt(1, 0), Forced)
	p.BeginFrame()
	p.Update()
	if !near(p.Latest(), gg.Pt(0.2, 0)) {
		t.Errorf("expected offsets dropped, got %v", p.Latest())
	}
	if p.Forced() {
		t.Error("expected forced flag cleared")
	}
}

func TestFindOffset(t *testing.T) {
	p := New("xy", true)
	p.SetAxisPoints(0, []float64{0, 0.5, 1})

	tests := []struct {
		in       gg.Point
		wantLeft [2]int
		wantSub  gg.Point
	}{
		{gg.Pt(0.25, 0.5), [2]int{0, 0}, gg.Pt(0.5, 0.5)},
		{gg.Pt(0.75, 1), [2]int{1, 0}, gg.Pt(0.5, 1)},
		{gg.Pt(1.5, -1), [2]int{1, 0}, gg.Pt(1, 0)},
	}
	for _, tt := range tests {
		left, sub := p.FindOffset(tt.in)
		if left != tt.wantLeft || !near(sub, tt.wantSub) {
			t.Errorf("FindOffset(%v) = %v %v; expected %v %v", tt.in, left, sub, tt.wantLeft, tt.wantSub)
		}
	}
}

func TestNormalized(t *testing.T) {
	p := New("angle", true)
	p.Min = gg.Pt(-1, 0)
	p.Max = gg.Pt(1, 2)
	if got := p.Normalized(gg.Pt(0, 1)); !near(got, gg.Pt(0.5, 0.5)) {
		t.Errorf("expected (0.5, 0.5), got %v", got)
	}
	p.SetNormalized(gg.Pt(1, 0))
	if !near(p.Value, gg.Pt(1, 0)) {
		t.Errorf("expected value (1, 0), got %v", p.Value)
	}
}

type recordingPusher struct {
	pushed []deform.Deformation
}

func (r *recordingPusher) Push(d deform.Deformation) bool {
	r.pushed = append(r.pushed, d)
	return true
}

func TestDeformationBindingInterpolates(t *testing.T) {
	p := New("sway", false)
	target := &recordingPusher{}
	b := NewDeformationBinding(p, target, 2)
	b.SetValue(1, 0, deform.Uniform(2, veca.Vec2{X: 10, Y: -4}))
	p.Bind(b)

	p.Value = gg.Pt(0.25, 0)
	p.BeginFrame()
	p.Update()

	if len(target.pushed) != 1 {
		t.Fatalf("expected one push, got %d", len(target.pushed))
	}
	got := target.pushed[0].VertexOffsets.At(1)
	if math.Abs(float64(got.X)-2.5) > 1e-5 || math.Abs(float64(got.Y)+1) > 1e-5 {
		t.Errorf("expected (2.5, -1), got %v", got)
	}

	b.SetInterpolation(Nearest)
	p.Update()
	if got := target.pushed[1].VertexOffsets.At(0); got.X != 0 {
		t.Errorf("expected nearest keypoint 0, got %v", got)
	}
}

func TestValueBindingBilinear(t *testing.T) {
	p := New("pose", true)
	var got float64
	b := NewValueBinding(p, 0, func(v float64) { got = v })
	b.SetValue(1, 1, 8)
	b.SetValue(1, 0, 4)
	p.Bind(b)

	p.Value = gg.Pt(0.5, 0.5)
	p.Update()
	if math.Abs(got-3) > 1e-9 {
		t.Errorf("expected 3, got %f", got)
	}

	b.SetInterpolation(Step)
	p.Update()
	if got != 0 {
		t.Errorf("expected step to hold left keypoint, got %f", got)
	}
}

func TestInactiveParameterSkipsUpdate(t *testing.T) {
	p := New("off", false)
	p.Active = false
	called := false
	p.Bind(NewValueBinding(p, 1, func(float64) { called = true }))
	p.Update()
	if called {
		t.Error("expected inactive parameter not to apply bindings")
	}
}

func TestParseMergeMode(t *testing.T) {
	m, err := ParseMergeMode("Forced")
	if err != nil || m != Forced {
		t.Errorf("expected Forced, got %v %v", m, err)
	}
	if _, err := ParseMergeMode("blend"); !errors.Is(err, ErrUnknownMergeMode) {
		t.Errorf("expected ErrUnknownMergeMode, got %v", err)
	}
}
