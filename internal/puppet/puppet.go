// Package puppet owns a rig: its nodes, parameters, shared atlases and the
// per-frame phase order that drives them.
//
// Nodes are donburi entities. Every node carries a [Node] component; the
// optional [Deformable], [Driver] and [Motion] components decide which
// phases a node takes part in. Parameters live in a flat table indexed by
// [param.ID], and drivers refer to their target by that id.
package puppet

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gg"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"

	"github.com/nijigenerate/nicxlive-sub001/internal/atlas"
	"github.com/nijigenerate/nicxlive-sub001/internal/deform"
	"github.com/nijigenerate/nicxlive-sub001/internal/diag"
	"github.com/nijigenerate/nicxlive-sub001/internal/driver"
	"github.com/nijigenerate/nicxlive-sub001/internal/param"
	"github.com/nijigenerate/nicxlive-sub001/internal/veca"
)

// NodeID identifies a node. Removed nodes' ids are never valid again.
type NodeID = donburi.Entity

// Root is the parent of top-level nodes.
var Root = donburi.Null

// PostStages is the number of post-process stages run every frame.
const PostStages = 3

// DiagnosticEvent carries diagnostics raised during a frame. They are
// delivered to subscribers at the end of Update.
var DiagnosticEvent = events.NewEventType[diag.Event]()

// Engine holds the tunables of the frame loop.
type Engine struct {
	MagnitudeLimit float32
	Timing         driver.Timing
}

func DefaultEngine() Engine {
	return Engine{
		MagnitudeLimit: deform.DefaultMagnitudeLimit,
		Timing:         driver.DefaultTiming(),
	}
}

type Option func(*Puppet)

func WithEngine(e Engine) Option    { return func(p *Puppet) { p.engine = e } }
func WithEnv(env driver.Env) Option { return func(p *Puppet) { p.env = env } }

// WithAtlasTrace logs atlas repacks to l at debug level.
func WithAtlasTrace(l *slog.Logger) Option {
	return func(p *Puppet) { p.atlasOpts = append(p.atlasOpts, atlas.WithTrace(l)) }
}

type eventSink struct{ world donburi.World }

func (s eventSink) Report(e diag.Event) { DiagnosticEvent.Publish(s.world, e) }

// Puppet is a rig and its runtime state.
type Puppet struct {
	world donburi.World

	order  []NodeID
	byName map[string]NodeID

	params      []*param.Parameter
	paramByName map[string]param.ID

	atlases   *atlas.Set
	atlasOpts []atlas.Option
	engine    Engine
	env       driver.Env
	sink      diag.Sink

	frame int
	time  float64
}

func New(opts ...Option) *Puppet {
	p := &Puppet{
		world:       donburi.NewWorld(),
		byName:      make(map[string]NodeID),
		paramByName: make(map[string]param.ID),
		engine:      DefaultEngine(),
		env:         driver.DefaultEnv(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.atlases = atlas.NewSet(p.atlasOpts...)
	p.sink = eventSink{p.world}
	return p
}

func (p *Puppet) World() donburi.World { return p.world }
func (p *Puppet) Atlases() *atlas.Set  { return p.atlases }
func (p *Puppet) Engine() Engine       { return p.engine }
func (p *Puppet) Env() driver.Env      { return p.env }
func (p *Puppet) Frame() int           { return p.frame }
func (p *Puppet) Time() float64        { return p.time }
func (p *Puppet) Nodes() []NodeID      { return append([]NodeID(nil), p.order...) }
func (p *Puppet) Params() []*param.Parameter {
	return append([]*param.Parameter(nil), p.params...)
}

// Subscribe delivers every diagnostic to s at the end of each Update.
func (p *Puppet) Subscribe(s diag.Sink) {
	DiagnosticEvent.Subscribe(p.world, func(_ donburi.World, e diag.Event) {
		s.Report(e)
	})
}

// SetEnv replaces the physics environment of the puppet and its drivers.
func (p *Puppet) SetEnv(env driver.Env) {
	p.env = env
	p.eachDriver(func(_ NodeID, dd *DriverData) { dd.Driver.Env = env })
}

// AddNode creates a node under parent, which must be Root or an existing
// node. Names must be unique.
func (p *Puppet) AddNode(name string, parent NodeID, t Transform) (NodeID, error) {
	if _, dup := p.byName[name]; dup {
		return Root, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	if parent != Root && !p.world.Valid(parent) {
		return Root, fmt.Errorf("%w: parent of %s", ErrUnknownNode, name)
	}
	id := p.world.Create(Node)
	Node.SetValue(p.world.Entry(id), NodeData{
		Name:   name,
		Parent: parent,
		Local:  t,
		local:  t.Matrix(),
		world:  gg.Identity(),
	})
	p.order = append(p.order, id)
	p.byName[name] = id
	p.refreshTransforms()
	return id, nil
}

func (p *Puppet) entry(id NodeID) (*donburi.Entry, error) {
	if id == Root || !p.world.Valid(id) {
		return nil, ErrUnknownNode
	}
	return p.world.Entry(id), nil
}

// Find returns the node called name.
func (p *Puppet) Find(name string) (NodeID, bool) {
	id, ok := p.byName[name]
	return id, ok
}

// NodeData returns the node component of id.
func (p *Puppet) NodeData(id NodeID) (*NodeData, error) {
	e, err := p.entry(id)
	if err != nil {
		return nil, err
	}
	return Node.Get(e), nil
}

// SetTransform replaces a node's local transform.
func (p *Puppet) SetTransform(id NodeID, t Transform) error {
	n, err := p.NodeData(id)
	if err != nil {
		return err
	}
	n.Local = t
	n.local = t.Matrix()
	p.refreshTransforms()
	return nil
}

// AddDeformable gives a node a deformable mesh registered with the
// puppet's atlases. uvs may be nil.
func (p *Puppet) AddDeformable(id NodeID, vertices, uvs []veca.Vec2) (*deform.Deformable, error) {
	e, err := p.entry(id)
	if err != nil {
		return nil, err
	}
	if e.HasComponent(Deformable) {
		return Deformable.Get(e).Part, nil
	}
	part := deform.NewDeformable(Node.Get(e).Name, vertices, deform.Options{
		MagnitudeLimit: p.engine.MagnitudeLimit,
		Sink:           p.sink,
	})
	if uvs != nil {
		part.SetUVs(uvs)
	}
	part.Attach(p.atlases)
	e.AddComponent(Deformable)
	Deformable.SetValue(e, DeformableData{Part: part})
	return part, nil
}

// Deformable returns the deformable component of id, if any.
func (p *Puppet) Deformable(id NodeID) (*deform.Deformable, bool) {
	e, err := p.entry(id)
	if err != nil || !e.HasComponent(Deformable) {
		return nil, false
	}
	return Deformable.Get(e).Part, true
}

// AddDriver attaches a physics driver to id writing to target, which may
// be NoParam.
func (p *Puppet) AddDriver(id NodeID, s driver.Settings, target param.ID) (*driver.Driver, error) {
	e, err := p.entry(id)
	if err != nil {
		return nil, err
	}
	if target != NoParam {
		if _, ok := p.Param(target); !ok {
			return nil, fmt.Errorf("%w: id %d", ErrUnknownParam, target)
		}
	}
	d := driver.New(Node.Get(e).Name, s)
	d.Env = p.env
	d.Timing = p.engine.Timing
	d.SetSink(p.sink)
	if !e.HasComponent(Driver) {
		e.AddComponent(Driver)
	}
	Driver.SetValue(e, DriverData{Driver: d, Param: target})
	return d, nil
}

// Driver returns the driver component of id, if any.
func (p *Puppet) Driver(id NodeID) (*driver.Driver, bool) {
	e, err := p.entry(id)
	if err != nil || !e.HasComponent(Driver) {
		return nil, false
	}
	return Driver.Get(e).Driver, true
}

// AddMotion appends a tween track to a node's translation.
func (p *Puppet) AddMotion(id NodeID, tr *Track) error {
	e, err := p.entry(id)
	if err != nil {
		return err
	}
	if !e.HasComponent(Motion) {
		e.AddComponent(Motion)
	}
	m := Motion.Get(e)
	m.Tracks = append(m.Tracks, tr)
	return nil
}

// AddParameter adds prm to the parameter table and returns its id.
func (p *Puppet) AddParameter(prm *param.Parameter) (param.ID, error) {
	if _, dup := p.paramByName[prm.Name]; dup {
		return NoParam, fmt.Errorf("%w: %s", ErrDuplicateName, prm.Name)
	}
	id := param.ID(len(p.params))
	prm.ID = id
	p.params = append(p.params, prm)
	p.paramByName[prm.Name] = id
	return id, nil
}

func (p *Puppet) Param(id param.ID) (*param.Parameter, bool) {
	if id < 0 || int(id) >= len(p.params) {
		return nil, false
	}
	return p.params[id], true
}

func (p *Puppet) ParamByName(name string) (*param.Parameter, bool) {
	id, ok := p.paramByName[name]
	if !ok {
		return nil, false
	}
	return p.params[id], true
}

// RemoveNode removes id and its descendants. Their meshes leave the
// atlases.
func (p *Puppet) RemoveNode(id NodeID) error {
	if _, err := p.entry(id); err != nil {
		return err
	}
	doomed := map[NodeID]bool{id: true}
	for _, n := range p.order {
		nd := Node.Get(p.world.Entry(n))
		if doomed[nd.Parent] {
			doomed[n] = true
		}
	}

	kept := p.order[:0]
	for _, n := range p.order {
		if !doomed[n] {
			kept = append(kept, n)
			continue
		}
		e := p.world.Entry(n)
		if e.HasComponent(Deformable) {
			Deformable.Get(e).Part.Detach()
		}
		delete(p.byName, Node.Get(e).Name)
		p.world.Remove(n)
	}
	p.order = kept
	return nil
}

// AreDeformationNodesCompatible reports whether a and b are both
// deformable with equal vertex counts.
func (p *Puppet) AreDeformationNodesCompatible(a, b NodeID) bool {
	da, okA := p.Deformable(a)
	db, okB := p.Deformable(b)
	if !okA || !okB {
		return false
	}
	return deform.AreCompatible(da, db)
}

// refreshTransforms recomputes world matrices. Parents precede children in
// p.order, so one pass suffices.
func (p *Puppet) refreshTransforms() {
	for _, id := range p.order {
		n := Node.Get(p.world.Entry(id))
		n.local = n.Local.Matrix()
		if n.Parent == Root || !p.world.Valid(n.Parent) {
			n.world = n.local
			continue
		}
		parent := Node.Get(p.world.Entry(n.Parent))
		n.world = parent.world.Multiply(n.local)
	}
}

func (p *Puppet) eachDriver(fn func(NodeID, *DriverData)) {
	for _, id := range p.order {
		e := p.world.Entry(id)
		if e.HasComponent(Driver) {
			fn(id, Driver.Get(e))
		}
	}
}

func (p *Puppet) eachDeformable(fn func(*deform.Deformable)) {
	for _, id := range p.order {
		e := p.world.Entry(id)
		if e.HasComponent(Deformable) {
			fn(Deformable.Get(e).Part)
		}
	}
}

// CountWith returns how many nodes carry component c.
func (p *Puppet) CountWith(c donburi.IComponentType) int {
	return donburi.NewQuery(filter.Contains(c)).Count(p.world)
}

// WorldPoints returns a deformable node's deformed vertices in puppet
// space.
func (p *Puppet) WorldPoints(id NodeID) ([]gg.Point, error) {
	e, err := p.entry(id)
	if err != nil {
		return nil, err
	}
	if !e.HasComponent(Deformable) {
		return nil, ErrNotDeformable
	}
	n := Node.Get(e)
	m := n.world
	part := Deformable.Get(e).Part
	if o, ok := part.Override(); ok {
		m = m.Multiply(o)
	}
	pts := part.DeformedPoints()
	out := make([]gg.Point, len(pts))
	for i, v := range pts {
		out[i] = m.TransformPoint(gg.Pt(float64(v.X), float64(v.Y)))
	}
	return out, nil
}

// Reset puts every driver back at rest.
func (p *Puppet) Reset() {
	p.refreshTransforms()
	p.eachDriver(func(id NodeID, dd *DriverData) {
		dd.Driver.UpdateAnchor(Node.Get(p.world.Entry(id)))
		dd.Driver.Reset()
	})
}
