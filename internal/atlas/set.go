package atlas

// Set groups the three per-category atlases a puppet owns.
type Set struct {
	Vertices *Atlas
	UVs      *Atlas
	Deform   *Atlas
}

// NewSet returns a set of empty atlases sharing opts.
func NewSet(opts ...Option) *Set {
	return &Set{
		Vertices: New("vertices", opts...),
		UVs:      New("uvs", opts...),
		Deform:   New("deform", opts...),
	}
}

// All returns the atlases in a fixed order.
func (s *Set) All() []*Atlas {
	return []*Atlas{s.Vertices, s.UVs, s.Deform}
}

// AnyDirty reports whether any atlas has pending changes.
func (s *Set) AnyDirty() bool {
	for _, a := range s.All() {
		if a.IsDirty() {
			return true
		}
	}
	return false
}

// MarkUploaded clears the dirty flag on every atlas.
func (s *Set) MarkUploaded() {
	for _, a := range s.All() {
		a.MarkUploaded()
	}
}
