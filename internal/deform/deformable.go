package deform

import (
	"fmt"
	"sort"

	"github.com/gogpu/gg"

	"github.com/nijigenerate/nicxlive-sub001/internal/atlas"
	"github.com/nijigenerate/nicxlive-sub001/internal/diag"
	"github.com/nijigenerate/nicxlive-sub001/internal/veca"
)

// DefaultMagnitudeLimit is the per-axis offset above which a push or filter
// reports a large-deformation diagnostic.
const DefaultMagnitudeLimit = 50

// Options tunes a Deformable.
type Options struct {
	MagnitudeLimit float32
	Sink           diag.Sink
}

func DefaultOptions() Options {
	return Options{MagnitudeLimit: DefaultMagnitudeLimit, Sink: diag.Nop}
}

// FilterResult is what a filter hands back. A nil or empty Deformation
// leaves the current one alone; a nil Transform leaves the override alone.
type FilterResult struct {
	Deformation *veca.Array
	Transform   *gg.Matrix
}

// Filter inspects the current vertices and deformation of a part.
type Filter func(vertices, deformation *veca.Array, override *gg.Matrix) FilterResult

// Observer is called after every accepted push.
type Observer func(d *Deformable, delta Deformation)

type preFilter struct {
	priority int
	fn       Filter
}

type postFilter struct {
	stage int
	fn    Filter
}

// Deformable is the deformation component of a puppet part: base vertices,
// optional texture coordinates and the per-frame deformation layered on top.
type Deformable struct {
	Name        string
	Vertices    *veca.Array
	UVs         *veca.Array
	Deformation *veca.Array

	VertexSpan atlas.Handle
	UVSpan     atlas.Handle
	DeformSpan atlas.Handle

	opts      Options
	stack     Stack
	override  *gg.Matrix
	pre       []preFilter
	post      []postFilter
	observers []Observer
	atlases   *atlas.Set
}

// NewDeformable returns a part with a copy of vertices and a zero
// deformation of the same length.
func NewDeformable(name string, vertices []veca.Vec2, opts Options) *Deformable {
	if opts.Sink == nil {
		opts.Sink = diag.Nop
	}
	d := &Deformable{
		Name:        name,
		Vertices:    veca.FromPoints(vertices),
		Deformation: veca.New(len(vertices)),
		opts:        opts,
	}
	d.stack.owner = d
	return d
}

// SetUVs installs texture coordinates. Must be called before Attach.
func (d *Deformable) SetUVs(uvs []veca.Vec2) {
	d.UVs = veca.FromPoints(uvs)
}

func (d *Deformable) Stack() *Stack { return &d.stack }

func (d *Deformable) Options() Options { return d.opts }

// SetSink replaces the diagnostic sink.
func (d *Deformable) SetSink(s diag.Sink) { d.opts.Sink = diag.Or(s) }

// Attach registers the part's arrays with the atlases of set.
func (d *Deformable) Attach(set *atlas.Set) {
	if d.atlases == set {
		return
	}
	if d.atlases != nil {
		d.Detach()
	}
	d.atlases = set
	set.Vertices.Register(d.Vertices, &d.VertexSpan)
	if d.UVs != nil {
		set.UVs.Register(d.UVs, &d.UVSpan)
	}
	set.Deform.Register(d.Deformation, &d.DeformSpan)
}

// Detach removes the part's arrays from their atlases. The arrays keep
// their contents.
func (d *Deformable) Detach() {
	set := d.atlases
	if set == nil {
		return
	}
	set.Vertices.Unregister(d.Vertices)
	if d.UVs != nil {
		set.UVs.Unregister(d.UVs)
	}
	set.Deform.Unregister(d.Deformation)
	d.atlases = nil
}

func (d *Deformable) Attached() bool { return d.atlases != nil }

// AddPreFilter registers a pre-process filter. Lower priorities run first;
// equal priorities run in registration order.
func (d *Deformable) AddPreFilter(priority int, fn Filter) {
	d.pre = append(d.pre, preFilter{priority, fn})
	sort.SliceStable(d.pre, func(i, j int) bool { return d.pre[i].priority < d.pre[j].priority })
}

// AddPostFilter registers a post-process filter for stage.
func (d *Deformable) AddPostFilter(stage int, fn Filter) {
	d.post = append(d.post, postFilter{stage, fn})
}

// Observe registers fn to be called after each accepted push.
func (d *Deformable) Observe(fn Observer) {
	d.observers = append(d.observers, fn)
}

// Override returns the transform captured from filters this frame.
func (d *Deformable) Override() (gg.Matrix, bool) {
	if d.override == nil {
		return gg.Identity(), false
	}
	return *d.override, true
}

// Begin zeroes the deformation and clears the override transform.
func (d *Deformable) Begin() {
	d.stack.PreUpdate()
	d.override = nil
}

// PreProcess runs the pre-process filters in priority order.
func (d *Deformable) PreProcess() {
	for _, f := range d.pre {
		d.apply(f.fn, "filter:pre")
	}
}

// Push forwards to the stack.
func (d *Deformable) Push(delta Deformation) bool {
	return d.stack.Push(delta)
}

// Normalize resizes the deformation to the vertex count, zero-filling.
func (d *Deformable) Normalize() {
	d.normalize()
}

// PostProcess runs the post-process filters registered for stage.
func (d *Deformable) PostProcess(stage int) {
	for _, f := range d.post {
		if f.stage == stage {
			d.apply(f.fn, fmt.Sprintf("filter:post%d", stage))
		}
	}
}

// Finalize guarantees len(Deformation) == len(Vertices).
func (d *Deformable) Finalize() {
	d.normalize()
}

func (d *Deformable) apply(fn Filter, tag string) {
	res := fn(d.Vertices, d.Deformation, d.override)
	if res.Transform != nil {
		m := *res.Transform
		d.override = &m
	}
	if res.Deformation == nil || res.Deformation.Len() == 0 {
		return
	}
	d.resize(d.Deformation, d.deformAtlas(), res.Deformation.Len())
	d.Deformation.CopyFrom(res.Deformation)
	d.markDeformDirty()
	d.guard(tag)
}

func (d *Deformable) normalize() {
	if n := d.Vertices.Len(); d.Deformation.Len() != n {
		d.resize(d.Deformation, d.deformAtlas(), n)
	}
}

// Rebuffer replaces the base vertices and resizes the deformation to match,
// dropping offsets beyond the new length.
func (d *Deformable) Rebuffer(vertices []veca.Vec2) {
	src := veca.FromPoints(vertices)
	if a := d.vertexAtlas(); a != nil {
		_ = a.Resize(d.Vertices, src.Len())
		d.Vertices.CopyFrom(src)
		a.MarkDirty()
	} else {
		d.Vertices.CopyFrom(src)
	}
	d.normalize()
}

// resize changes an array's length, through its atlas when attached so the
// block stays packed.
func (d *Deformable) resize(arr *veca.Array, a *atlas.Atlas, n int) {
	if arr.Len() == n {
		return
	}
	if a != nil {
		if err := a.Resize(arr, n); err == nil {
			return
		}
	}
	arr.Resize(n)
}

func (d *Deformable) vertexAtlas() *atlas.Atlas {
	if d.atlases == nil {
		return nil
	}
	return d.atlases.Vertices
}

func (d *Deformable) deformAtlas() *atlas.Atlas {
	if d.atlases == nil {
		return nil
	}
	return d.atlases.Deform
}

func (d *Deformable) markDeformDirty() {
	if a := d.deformAtlas(); a != nil {
		a.MarkDirty()
	}
}

// Deformed returns vertex i with its deformation applied.
func (d *Deformable) Deformed(i int) veca.Vec2 {
	v := d.Vertices.At(i)
	if i < d.Deformation.Len() {
		v = v.Add(d.Deformation.At(i))
	}
	return v
}

// DeformedPoints returns every vertex with its deformation applied.
func (d *Deformable) DeformedPoints() []veca.Vec2 {
	out := make([]veca.Vec2, d.Vertices.Len())
	for i := range out {
		out[i] = d.Deformed(i)
	}
	return out
}

// AreCompatible reports whether deformations can be transferred between a
// and b: both must be deformable and have the same vertex count.
func AreCompatible(a, b *Deformable) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Vertices.Len() == b.Vertices.Len()
}
