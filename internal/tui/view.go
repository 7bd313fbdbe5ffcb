package tui

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateKnobs:
		return m.viewKnobs()
	case stateSim:
		return m.viewSim()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("         " + cyan.Render("p u p p e t s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.rigs {
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(name) + "\n")
		} else {
			b.WriteString("        " + dim.Render(name) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.viewErr())
	b.WriteString(dim.Render("      ↑↓ select   enter open   q quit") + "\n")

	return b.String()
}

func (m model) viewKnobList() string {
	var b strings.Builder
	for i, name := range m.knobNames {
		val := fmt.Sprintf("%8.3f", m.knobs[name])
		if i == m.knobCursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-16s", name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-16s", name)) + dim.Render(val) + "\n")
		}
	}
	return b.String()
}

func (m model) viewKnobs() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render(m.selected) + "  " + dim.Render(fmt.Sprintf("%d drivers", len(m.cfg.Drivers))) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 30)) + "\n\n")
	b.WriteString(m.viewKnobList())
	b.WriteString("\n")
	b.WriteString(m.viewErr())
	b.WriteString(dim.Render("      ↑↓ select  ←→ adjust  s start  esc back") + "\n")

	return b.String()
}

func (m model) viewSim() string {
	cw := max(50, m.width-40)
	ch := max(12, m.height-14)

	c := newCanvas(cw, ch, m.lo, m.hi)
	p := m.rig.Puppet
	for name, mesh := range m.rig.Meshes {
		id, _ := p.Find(name)
		pts, err := p.WorldPoints(id)
		if err != nil {
			continue
		}
		for _, e := range mesh.Edges {
			if e[0] < len(pts) && e[1] < len(pts) {
				c.line(pts[e[0]], pts[e[1]], '·')
			}
		}
		for _, q := range pts {
			c.point(q, '•')
		}
	}
	for _, s := range m.frame.Drivers {
		c.line(s.Anchor, s.Bob, '┊')
		c.point(s.Anchor, '◆')
		c.point(s.Bob, '●')
	}

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	if m.paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s  %s\n\n",
		statusIcon, cyan.Render(m.selected), statusText,
		dim.Render(fmt.Sprintf("t=%.1fs ×%.0f", m.frame.Time, m.speed)),
		dim.Render(fmt.Sprintf("%.0ffps", m.fps))))

	for _, row := range strings.Split(strings.TrimRight(c.String(), "\n"), "\n") {
		b.WriteString("   " + row + "\n")
	}

	b.WriteString("\n")
	for _, s := range m.frame.Drivers {
		b.WriteString(fmt.Sprintf("   %s %s%s  %s%s\n",
			white.Render(fmt.Sprintf("%-16s", s.Name)),
			dim.Render("value="), white.Render(fmt.Sprintf("(%+.3f, %+.3f)", s.Value.X, s.Value.Y)),
			dim.Render("angle="), white.Render(fmt.Sprintf("%+.3f", s.Angle))))
	}
	diagStyle := dim
	if m.diagnostics > 0 {
		diagStyle = red
	}
	b.WriteString(fmt.Sprintf("   %s %s   %s %s\n",
		dim.Render("max deform"), white.Render(fmt.Sprintf("%.2f", m.frame.MaxDeformation)),
		dim.Render("diagnostics"), diagStyle.Render(fmt.Sprint(m.diagnostics))))

	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("x"), cyan.Render(sparkline(m.history, 40))))
		chart := asciigraph.Plot(m.history, asciigraph.Height(5), asciigraph.Width(40), asciigraph.Caption("param x"))
		b.WriteString(graphStyle.Render(chart) + "\n")
	}

	b.WriteString("\n" + m.viewKnobList())
	b.WriteString(m.viewErr())
	b.WriteString("\n" + dim.Render("   space pause  ±speed  ↑↓←→ knobs  r reset  c knobs  q quit") + "\n")

	return b.String()
}

func (m model) viewErr() string {
	if m.err == nil {
		return ""
	}
	return "      " + red.Render(m.err.Error()) + "\n\n"
}
