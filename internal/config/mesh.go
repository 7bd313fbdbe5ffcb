package config

import "github.com/nijigenerate/nicxlive-sub001/internal/veca"

// Mesh is a deformable's rest vertices and the edges used to draw it.
type Mesh struct {
	Vertices []veca.Vec2
	Edges    [][2]int
}

// Grid builds a cols×rows cell grid hanging down from the origin,
// centred horizontally. Vertices are row-major from the top.
func Grid(width, height float64, cols, rows int) Mesh {
	cols, rows = max(1, cols), max(1, rows)
	var m Mesh
	idx := func(c, r int) int { return r*(cols+1) + c }
	for r := 0; r <= rows; r++ {
		for c := 0; c <= cols; c++ {
			m.Vertices = append(m.Vertices, veca.Vec2{
				X: float32(-width/2 + width*float64(c)/float64(cols)),
				Y: float32(height * float64(r) / float64(rows)),
			})
			if c > 0 {
				m.Edges = append(m.Edges, [2]int{idx(c-1, r), idx(c, r)})
			}
			if r > 0 {
				m.Edges = append(m.Edges, [2]int{idx(c, r-1), idx(c, r)})
			}
		}
	}
	return m
}

// Polygon closes explicit vertices into a loop.
func Polygon(pts []Vec) Mesh {
	var m Mesh
	for i, p := range pts {
		m.Vertices = append(m.Vertices, veca.Vec2{X: float32(p[0]), Y: float32(p[1])})
		if len(pts) > 1 {
			m.Edges = append(m.Edges, [2]int{i, (i + 1) % len(pts)})
		}
	}
	return m
}

func (mc *MeshConfig) build() Mesh {
	if mc.Grid != nil {
		g := mc.Grid
		return Grid(g.Width, g.Height, g.Cols, g.Rows)
	}
	return Polygon(mc.Vertices)
}

// falloff weights each vertex by its height within the mesh, 0 at the top
// row and 1 at the bottom.
func falloff(vs []veca.Vec2) []float32 {
	if len(vs) == 0 {
		return nil
	}
	lo, hi := vs[0].Y, vs[0].Y
	for _, v := range vs {
		lo, hi = min(lo, v.Y), max(hi, v.Y)
	}
	w := make([]float32, len(vs))
	for i, v := range vs {
		if hi > lo {
			w[i] = (v.Y - lo) / (hi - lo)
		} else {
			w[i] = 1
		}
	}
	return w
}
