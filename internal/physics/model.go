package physics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/gg"

	"github.com/nijigenerate/nicxlive-sub001/internal/diag"
)

// ErrUnknownModel is returned by ParseKind for unrecognised names.
var ErrUnknownModel = errors.New("physics: unknown model")

// Params supplies the effective constants of a model.
type Params interface {
	Gravity() float64
	Length() float64
	Frequency() float64
	AngleDamping() float64
	LengthDamping() float64
}

// Model is a simulated bob hanging from an anchor.
type Model interface {
	Kind() Kind
	// SetAnchor moves the attachment point. The bob is left where it is.
	SetAnchor(anchor gg.Point)
	Anchor() gg.Point
	// Tick advances the simulation by h seconds.
	Tick(h float64)
	// Reset puts the bob at rest straight below the anchor.
	Reset()
	Output() gg.Point
	// Time is the simulated time of successful steps.
	Time() float64
}

// Hamiltonian is implemented by models that can report their energy.
type Hamiltonian interface {
	Energy() float64
}

type Kind int

const (
	KindPendulum Kind = iota
	KindSpringPendulum
)

var kindNames = map[Kind]string{
	KindPendulum:       "pendulum",
	KindSpringPendulum: "spring_pendulum",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts the names returned by Kind.String, case-insensitively.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "_")
	for k, s := range kindNames {
		if s == n || (k == KindSpringPendulum && n == "springpendulum") {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownModel, name)
}

// Kinds lists the available model names.
func Kinds() []string {
	out := make([]string, 0, len(kindNames))
	for _, n := range kindNames {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// New builds a model of kind k at rest below anchor.
func New(k Kind, p Params, anchor gg.Point, sink diag.Sink, node string) (Model, error) {
	var m Model
	switch k {
	case KindPendulum:
		m = NewPendulum(p, sink, node)
	case KindSpringPendulum:
		m = NewSpringPendulum(p, sink, node)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, k)
	}
	m.SetAnchor(anchor)
	m.Reset()
	return m, nil
}

// guard collects the first failing check of an evaluation so it can be
// reported once per step.
type guard struct {
	sink diag.Sink
	node string
	tag  string
	val  float64
}

// check returns v, or 0 after recording tag when v is not finite.
func (g *guard) check(tag string, v float64) float64 {
	if isFinite(v) {
		return v
	}
	g.fail(tag, v)
	return 0
}

func (g *guard) checkPoint(tag string, p gg.Point) gg.Point {
	if isFinite(p.X) && isFinite(p.Y) {
		return p
	}
	g.fail(tag, p.X)
	return gg.Point{}
}

func (g *guard) fail(tag string, v float64) {
	if g.tag == "" {
		g.tag = tag
		g.val = v
	}
}

func (g *guard) flush() {
	if g.tag == "" {
		return
	}
	diag.Or(g.sink).Report(diag.Event{
		Kind:  diag.KindInvalidPhysics,
		Tag:   g.tag,
		Node:  g.node,
		Value: g.val,
	})
	g.tag = ""
	g.val = 0
}

func (g *guard) unstable(err error) {
	diag.Or(g.sink).Report(diag.Event{
		Kind: diag.KindUnstableStep,
		Tag:  err.Error(),
		Node: g.node,
	})
}
