package export

import (
	"io"

	"github.com/gogpu/gg"
)

// Style colors a rendering.
type Style struct {
	Background string
	Mesh       string
	Rod        string
	Bob        string
	LineWidth  float64
	BobRadius  float64
}

func DefaultStyle() Style {
	return Style{
		Background: "#0a0a0a",
		Mesh:       "#5fd7ff",
		Rod:        "#808080",
		Bob:        "#ff87ff",
		LineWidth:  1.5,
		BobRadius:  4,
	}
}

// Render draws the scene's wireframe and pendulums.
func (s *Scene) Render(width, height int, st Style) (*gg.Context, error) {
	lo, hi, ok := s.Bounds()
	if !ok {
		return nil, ErrEmptyScene
	}
	m := fit(lo, hi, width, height)

	dc := gg.NewContext(width, height)
	dc.ClearWithColor(gg.Hex(st.Background))
	dc.SetLineWidth(st.LineWidth)

	dc.SetHexColor(st.Mesh)
	for _, part := range s.Parts {
		for _, e := range part.Edges {
			if e[0] >= len(part.Points) || e[1] >= len(part.Points) {
				continue
			}
			a := m.TransformPoint(part.Points[e[0]])
			b := m.TransformPoint(part.Points[e[1]])
			dc.DrawLine(a.X, a.Y, b.X, b.Y)
		}
	}
	if err := dc.Stroke(); err != nil {
		return nil, err
	}

	for _, pd := range s.Pendulums {
		a, b := m.TransformPoint(pd.Anchor), m.TransformPoint(pd.Bob)
		dc.SetHexColor(st.Rod)
		dc.DrawLine(a.X, a.Y, b.X, b.Y)
		if err := dc.Stroke(); err != nil {
			return nil, err
		}
		dc.SetHexColor(st.Bob)
		dc.DrawCircle(b.X, b.Y, st.BobRadius)
		if err := dc.Fill(); err != nil {
			return nil, err
		}
	}
	return dc, nil
}

// WritePNG renders the scene and encodes it to w.
func (s *Scene) WritePNG(w io.Writer, width, height int) error {
	dc, err := s.Render(width, height, DefaultStyle())
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}

// SavePNG renders the scene to a file.
func (s *Scene) SavePNG(path string, width, height int) error {
	dc, err := s.Render(width, height, DefaultStyle())
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.SavePNG(path)
}
