package deform

import (
	"testing"

	"github.com/gogpu/gg"
	. "github.com/onsi/gomega"

	"github.com/nijigenerate/nicxlive-sub001/internal/atlas"
	"github.com/nijigenerate/nicxlive-sub001/internal/diag"
	"github.com/nijigenerate/nicxlive-sub001/internal/veca"
)

func square() []veca.Vec2 {
	return []veca.Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
}

func TestDeformationArithmetic(t *testing.T) {
	g := NewWithT(t)
	d1 := FromPoints([]veca.Vec2{{X: 1, Y: 2}, {X: -3, Y: 4}, {X: 0.5, Y: 0}})
	d2 := FromPoints([]veca.Vec2{{X: 7, Y: -1}, {X: 2, Y: 2}, {X: 1, Y: 1}})

	neg := d1.Neg()
	for i := 0; i < d1.Len(); i++ {
		g.Expect(neg.VertexOffsets.At(i)).To(Equal(d1.VertexOffsets.At(i).Scale(-1)))
	}

	round := d1.Add(d2).Sub(d2)
	for i := 0; i < d1.Len(); i++ {
		g.Expect(round.VertexOffsets.X(i)).To(BeNumerically("~", d1.VertexOffsets.X(i), 1e-6))
		g.Expect(round.VertexOffsets.Y(i)).To(BeNumerically("~", d1.VertexOffsets.Y(i), 1e-6))
	}

	zero := d1.Scale(0)
	g.Expect(zero.VertexOffsets.MaxAbs()).To(BeZero())

	short := FromPoints([]veca.Vec2{{X: 1, Y: 1}})
	g.Expect(d1.Add(short).Len()).To(Equal(1))
	g.Expect(short.Sub(d1).Len()).To(Equal(1))
}

func TestStackSumsPushes(t *testing.T) {
	g := NewWithT(t)
	d := NewDeformable("part", square(), DefaultOptions())
	d.Deformation.Fill(veca.Vec2{X: 3, Y: 3})

	d.Begin()
	g.Expect(d.Deformation.MaxAbs()).To(BeZero())

	pushes := []Deformation{
		Uniform(4, veca.Vec2{X: 1, Y: 0}),
		FromPoints([]veca.Vec2{{X: 0, Y: 1}, {X: 0, Y: 2}, {X: 0, Y: 3}, {X: 0, Y: 4}}),
		Uniform(4, veca.Vec2{X: -0.5, Y: 0.5}),
	}
	for _, p := range pushes {
		g.Expect(d.Push(p)).To(BeTrue())
	}
	d.Normalize()
	d.Finalize()

	for i := 0; i < 4; i++ {
		want := veca.Vec2{}
		for _, p := range pushes {
			want = want.Add(p.VertexOffsets.At(i))
		}
		g.Expect(d.Deformation.X(i)).To(BeNumerically("~", want.X, 1e-6))
		g.Expect(d.Deformation.Y(i)).To(BeNumerically("~", want.Y, 1e-6))
	}
}

func TestPushRejectsLengthMismatch(t *testing.T) {
	g := NewWithT(t)
	var seen int
	d := NewDeformable("part", square(), DefaultOptions())
	d.Observe(func(*Deformable, Deformation) { seen++ })
	d.Begin()

	g.Expect(d.Push(Uniform(3, veca.Vec2{X: 1}))).To(BeFalse())
	g.Expect(d.Deformation.MaxAbs()).To(BeZero())
	g.Expect(seen).To(Equal(0))

	g.Expect(d.Push(Uniform(4, veca.Vec2{X: 1}))).To(BeTrue())
	g.Expect(seen).To(Equal(1))
}

func TestMagnitudeGuardIsAdvisory(t *testing.T) {
	g := NewWithT(t)
	rec := &diag.Recorder{}
	opts := DefaultOptions()
	opts.Sink = rec
	d := NewDeformable("arm", square(), opts)
	d.Begin()

	g.Expect(d.Push(Uniform(4, veca.Vec2{X: 30}))).To(BeTrue())
	g.Expect(rec.Count(diag.KindLargeDeformation)).To(Equal(0))

	g.Expect(d.Push(Uniform(4, veca.Vec2{X: 30}))).To(BeTrue())
	g.Expect(rec.Count(diag.KindLargeDeformation)).To(Equal(1))
	g.Expect(d.Deformation.X(0)).To(BeNumerically("==", 60))

	ev := rec.Events()[0]
	g.Expect(ev.Node).To(Equal("arm"))
	g.Expect(ev.Value).To(BeNumerically("==", 60))
}

func TestMagnitudeLimitIsConfigurable(t *testing.T) {
	g := NewWithT(t)
	rec := &diag.Recorder{}
	d := NewDeformable("arm", square(), Options{MagnitudeLimit: 5, Sink: rec})
	d.Begin()
	d.Push(Uniform(4, veca.Vec2{Y: -6}))
	g.Expect(rec.Count(diag.KindLargeDeformation)).To(Equal(1))
}

func TestFiltersReplaceWholesale(t *testing.T) {
	g := NewWithT(t)
	set := atlas.NewSet()
	d := NewDeformable("part", square(), DefaultOptions())
	d.Attach(set)

	var order []int
	d.AddPreFilter(10, func(_, _ *veca.Array, _ *gg.Matrix) FilterResult {
		order = append(order, 10)
		return FilterResult{Deformation: Uniform(4, veca.Vec2{X: 2}).VertexOffsets}
	})
	d.AddPreFilter(-1, func(_, _ *veca.Array, _ *gg.Matrix) FilterResult {
		order = append(order, -1)
		m := gg.Translate(5, 0)
		return FilterResult{Transform: &m}
	})
	d.AddPostFilter(1, func(_, def *veca.Array, _ *gg.Matrix) FilterResult {
		out := def.Clone()
		out.ScaleInPlace(2)
		return FilterResult{Deformation: out}
	})
	d.AddPostFilter(2, func(_, _ *veca.Array, _ *gg.Matrix) FilterResult {
		return FilterResult{}
	})

	d.Begin()
	d.Push(Uniform(4, veca.Vec2{Y: 9}))
	set.MarkUploaded()
	d.PreProcess()

	g.Expect(order).To(Equal([]int{-1, 10}))
	g.Expect(d.Deformation.At(0)).To(Equal(veca.Vec2{X: 2}))
	g.Expect(set.Deform.IsDirty()).To(BeTrue())
	m, ok := d.Override()
	g.Expect(ok).To(BeTrue())
	g.Expect(m.TransformPoint(gg.Pt(0, 0))).To(Equal(gg.Pt(5, 0)))

	d.PostProcess(0)
	g.Expect(d.Deformation.At(0)).To(Equal(veca.Vec2{X: 2}))
	d.PostProcess(1)
	g.Expect(d.Deformation.At(3)).To(Equal(veca.Vec2{X: 4}))
	d.PostProcess(2)
	g.Expect(d.Deformation.At(3)).To(Equal(veca.Vec2{X: 4}))

	d.Begin()
	_, ok = d.Override()
	g.Expect(ok).To(BeFalse())
}

func TestRebufferResizesDeformation(t *testing.T) {
	g := NewWithT(t)
	set := atlas.NewSet()
	d := NewDeformable("part", square(), DefaultOptions())
	d.SetUVs([]veca.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}})
	d.Attach(set)
	d.Begin()
	d.Push(FromPoints([]veca.Vec2{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 4}}))

	d.Rebuffer([]veca.Vec2{{X: 0, Y: 0}, {X: 5, Y: 5}})
	g.Expect(d.Vertices.Len()).To(Equal(2))
	g.Expect(d.Deformation.Len()).To(Equal(2))
	g.Expect(d.Deformation.At(1)).To(Equal(veca.Vec2{X: 2, Y: 2}))
	g.Expect(set.Vertices.Stride()).To(Equal(2))
	g.Expect(set.Deform.Stride()).To(Equal(2))
	g.Expect(set.UVs.Stride()).To(Equal(4))

	d.Rebuffer([]veca.Vec2{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}})
	g.Expect(d.Deformation.Len()).To(Equal(3))
	g.Expect(d.Deformation.At(2)).To(Equal(veca.Vec2{}))
	g.Expect(d.DeformedPoints()[1]).To(Equal(veca.Vec2{X: 3, Y: 3}))

	xs, _, err := set.Vertices.Resolve(d.VertexSpan)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(xs).To(Equal([]float32{0, 1, 2}))
}

func TestAttachDetach(t *testing.T) {
	g := NewWithT(t)
	set := atlas.NewSet()
	a := NewDeformable("a", square(), DefaultOptions())
	b := NewDeformable("b", square()[:3], DefaultOptions())
	a.Attach(set)
	b.Attach(set)

	g.Expect(set.Vertices.Stride()).To(Equal(7))
	g.Expect(b.VertexSpan.Offset).To(Equal(4))

	a.Detach()
	g.Expect(set.Vertices.Stride()).To(Equal(3))
	g.Expect(b.VertexSpan.Offset).To(Equal(0))
	g.Expect(a.Vertices.Points()).To(Equal(square()))
	g.Expect(a.Attached()).To(BeFalse())
}

func TestAreCompatible(t *testing.T) {
	a := NewDeformable("a", square(), DefaultOptions())
	b := NewDeformable("b", square(), DefaultOptions())
	c := NewDeformable("c", square()[:2], DefaultOptions())

	if !AreCompatible(a, b) {
		t.Error("expected equal vertex counts to be compatible")
	}
	if AreCompatible(a, c) {
		t.Error("expected differing vertex counts to be incompatible")
	}
	if AreCompatible(a, nil) {
		t.Error("expected missing component to be incompatible")
	}
}
