// Package atlas packs many independently sized point arrays into one
// contiguous block per category so the block can be uploaded in a single
// transfer.
//
// Every registered consumer is rebound as a view of its span after each
// repack, and the span it occupies is published through a [Handle] carrying
// the atlas generation. A handle from an older generation is rejected by
// [Atlas.Resolve] instead of silently reading someone else's points.
package atlas

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nijigenerate/nicxlive-sub001/internal/veca"
)

// ID identifies an atlas within the process.
type ID uint32

var lastID atomic.Uint32

// Handle records where a consumer lives inside an atlas block.
type Handle struct {
	Atlas      ID
	Generation uint64
	Offset     int
	Length     int
}

// IsZero reports whether h was never written by an atlas.
func (h Handle) IsZero() bool { return h.Atlas == 0 }

type binding struct {
	consumer *veca.Array
	sink     *Handle
	length   int
	offset   int
}

// Atlas is the shared block for one category of per-vertex data.
type Atlas struct {
	mu sync.Mutex

	id         ID
	name       string
	generation uint64
	storage    *veca.Array
	bindings   []binding
	lookup     map[*veca.Array]int
	dirty      bool

	trace *slog.Logger
}

// Option configures an Atlas.
type Option func(*Atlas)

// WithTrace logs every structural operation at debug level.
func WithTrace(l *slog.Logger) Option {
	return func(a *Atlas) { a.trace = l }
}

// New returns an empty atlas.
func New(name string, opts ...Option) *Atlas {
	a := &Atlas{
		id:      ID(lastID.Add(1)),
		name:    name,
		storage: veca.New(0),
		lookup:  make(map[*veca.Array]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Atlas) ID() ID       { return a.id }
func (a *Atlas) Name() string { return a.name }

// Generation increases by one on every repack.
func (a *Atlas) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

// Register adds consumer with its current length and repacks. Registering an
// array twice only replaces its sink. sink may be nil.
func (a *Atlas) Register(consumer *veca.Array, sink *Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i, ok := a.lookup[consumer]; ok {
		b := &a.bindings[i]
		b.sink = sink
		a.publish(b)
		a.log("register-existing", slog.Int("index", i))
		return
	}

	a.lookup[consumer] = len(a.bindings)
	a.bindings = append(a.bindings, binding{
		consumer: consumer,
		sink:     sink,
		length:   consumer.Len(),
	})
	a.log("register", slog.Int("length", consumer.Len()))
	a.rebuild()
}

// Unregister removes consumer and repacks. The consumer keeps an owned copy
// of its points and its sink is reset.
func (a *Atlas) Unregister(consumer *veca.Array) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i, ok := a.lookup[consumer]
	if !ok {
		return
	}
	removed := a.bindings[i]
	last := len(a.bindings) - 1
	if i != last {
		a.bindings[i] = a.bindings[last]
		a.lookup[a.bindings[i].consumer] = i
	}
	a.bindings = a.bindings[:last]
	delete(a.lookup, consumer)

	consumer.Own()
	if removed.sink != nil {
		*removed.sink = Handle{}
	}
	a.log("unregister", slog.Int("index", i))
	a.rebuild()
}

// Resize changes the span reserved for consumer. Equal lengths are a no-op.
func (a *Atlas) Resize(consumer *veca.Array, n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	i, ok := a.lookup[consumer]
	if !ok {
		return ErrUnknownConsumer
	}
	if n < 0 {
		n = 0
	}
	if a.bindings[i].length == n {
		return nil
	}
	a.bindings[i].length = n
	a.log("resize", slog.Int("index", i), slog.Int("length", n))
	a.rebuild()
	return nil
}

// rebuild allocates a fresh block of the summed lengths and moves every
// consumer into it in registration order. Callers hold mu.
func (a *Atlas) rebuild() {
	total := 0
	for _, b := range a.bindings {
		total += b.length
	}
	next := veca.New(total)

	offset := 0
	for i := range a.bindings {
		b := &a.bindings[i]
		b.offset = offset
		if b.length == 0 {
			b.consumer.Clear()
		} else {
			b.consumer.CopyInto(next, offset, b.length)
			b.consumer.BindExternalStorage(next, offset, b.length)
		}
		offset += b.length
	}

	a.storage = next
	a.generation++
	for i := range a.bindings {
		a.publish(&a.bindings[i])
	}
	a.dirty = true
	a.log("rebuild", slog.Int("stride", total), slog.Int("bindings", len(a.bindings)))
}

func (a *Atlas) publish(b *binding) {
	if b.sink == nil {
		return
	}
	*b.sink = Handle{
		Atlas:      a.id,
		Generation: a.generation,
		Offset:     b.offset,
		Length:     b.length,
	}
}

// Stride is the total number of points in the block.
func (a *Atlas) Stride() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.storage.Len()
}

// Count is the number of registered consumers.
func (a *Atlas) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.bindings)
}

// Span returns the current handle of consumer.
func (a *Atlas) Span(consumer *veca.Array) (Handle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i, ok := a.lookup[consumer]
	if !ok {
		return Handle{}, false
	}
	b := a.bindings[i]
	return Handle{Atlas: a.id, Generation: a.generation, Offset: b.offset, Length: b.length}, true
}

// Data returns the packed block. Consumers that were detached from the block
// since the last repack (for instance by growing past their span) have their
// points copied back first.
func (a *Atlas) Data() *veca.Array {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sync()
	return a.storage
}

func (a *Atlas) sync() {
	for i := range a.bindings {
		b := &a.bindings[i]
		if b.length == 0 || b.consumer.BoundTo(a.storage, b.offset) {
			continue
		}
		b.consumer.CopyInto(a.storage, b.offset, b.length)
		if b.consumer.Len() == b.length {
			b.consumer.BindExternalStorage(a.storage, b.offset, b.length)
		}
		a.dirty = true
	}
}

// Resolve returns the lanes addressed by h, or an error if h does not
// belong to the current generation of this atlas.
func (a *Atlas) Resolve(h Handle) (xs, ys []float32, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h.Atlas != a.id {
		return nil, nil, ErrForeignHandle
	}
	if h.Generation != a.generation {
		return nil, nil, ErrStaleHandle
	}
	bx, by := a.storage.Lanes()
	end := h.Offset + h.Length
	return bx[h.Offset:end:end], by[h.Offset:end:end], nil
}

func (a *Atlas) IsDirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirty
}

func (a *Atlas) MarkDirty() {
	a.mu.Lock()
	a.dirty = true
	a.mu.Unlock()
}

func (a *Atlas) MarkUploaded() {
	a.mu.Lock()
	a.dirty = false
	a.mu.Unlock()
}

func (a *Atlas) log(op string, attrs ...slog.Attr) {
	if a.trace == nil {
		return
	}
	args := make([]any, 0, len(attrs)+2)
	args = append(args, slog.String("atlas", a.name), slog.String("op", op))
	for _, at := range attrs {
		args = append(args, at)
	}
	a.trace.Debug("shared buffer", args...)
}
