package export

import (
	"fmt"
	"strings"

	"github.com/gogpu/gg"
)

// SVG draws the scene as line and circle elements.
func (s *Scene) SVG(width, height int) (string, error) {
	lo, hi, ok := s.Bounds()
	if !ok {
		return "", ErrEmptyScene
	}
	st := DefaultStyle()
	m := fit(lo, hi, width, height)

	var sb strings.Builder
	header(&sb, width, height, st.Background)

	sb.WriteString(fmt.Sprintf("<g stroke=\"%s\" stroke-width=\"%.1f\">\n", st.Mesh, st.LineWidth))
	for _, part := range s.Parts {
		for _, e := range part.Edges {
			if e[0] >= len(part.Points) || e[1] >= len(part.Points) {
				continue
			}
			line(&sb, m.TransformPoint(part.Points[e[0]]), m.TransformPoint(part.Points[e[1]]), "")
		}
	}
	sb.WriteString("</g>\n")

	for _, pd := range s.Pendulums {
		b := m.TransformPoint(pd.Bob)
		line(&sb, m.TransformPoint(pd.Anchor), b, st.Rod)
		sb.WriteString(fmt.Sprintf("<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", b.X, b.Y, st.BobRadius, st.Bob))
	}

	sb.WriteString("</svg>")
	return sb.String(), nil
}

// TrajectoryToSVG draws a polyline through points, scaled to fit.
func TrajectoryToSVG(points []gg.Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	lo, hi := points[0], points[0]
	for _, p := range points {
		lo = gg.Pt(min(lo.X, p.X), min(lo.Y, p.Y))
		hi = gg.Pt(max(hi.X, p.X), max(hi.Y, p.Y))
	}
	m := fit(lo, hi, width, height)

	var sb strings.Builder
	header(&sb, width, height, DefaultStyle().Background)
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor))

	for i, p := range points {
		q := m.TransformPoint(p)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", q.X, q.Y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", q.X, q.Y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

func header(sb *strings.Builder, width, height int, bg string) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, bg))
}

func line(sb *strings.Builder, a, b gg.Point, stroke string) {
	attr := ""
	if stroke != "" {
		attr = fmt.Sprintf(` stroke="%s"`, stroke)
	}
	sb.WriteString(fmt.Sprintf("<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\"%s/>\n", a.X, a.Y, b.X, b.Y, attr))
}
