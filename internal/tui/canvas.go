package tui

import (
	"math"
	"strings"

	"github.com/gogpu/gg"
)

// canvas is a character grid onto which a rig is projected. World y grows
// downwards, as on screen.
type canvas struct {
	w, h  int
	cells [][]rune
	view  gg.Matrix
}

func newCanvas(w, h int, lo, hi gg.Point) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = []rune(strings.Repeat(" ", w))
	}

	span := hi.Sub(lo)
	span.X, span.Y = math.Max(span.X, 1), math.Max(span.Y, 1)
	// terminal cells are about twice as tall as wide
	s := math.Min(float64(w-1)/span.X, 2*float64(h-1)/span.Y)
	mid := lo.Add(hi).Mul(0.5)
	c.view = gg.Translate(float64(w)/2, float64(h)/2).
		Multiply(gg.Scale(s, s/2)).
		Multiply(gg.Translate(-mid.X, -mid.Y))
	return c
}

func (c *canvas) cell(p gg.Point) (int, int) {
	q := c.view.TransformPoint(p)
	return int(math.Round(q.X)), int(math.Round(q.Y))
}

func (c *canvas) set(x, y int, r rune) {
	if x >= 0 && x < c.w && y >= 0 && y < c.h {
		c.cells[y][x] = r
	}
}

func (c *canvas) point(p gg.Point, r rune) {
	x, y := c.cell(p)
	c.set(x, y, r)
}

func (c *canvas) line(a, b gg.Point, r rune) {
	x1, y1 := c.cell(a)
	x2, y2 := c.cell(b)
	dx := intAbs(x2 - x1)
	dy := intAbs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		c.set(x1, y1, r)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func (c *canvas) String() string {
	var sb strings.Builder
	for _, row := range c.cells {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal, maxVal = math.Min(minVal, v), math.Max(maxVal, v)
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := max(1, len(data)/width)
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		sb.WriteRune(chars[max(0, min(7, idx))])
	}
	return sb.String()
}
