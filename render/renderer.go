// Package render rasterizes guest frame output onto a terminal cell
// grid. One logical unit maps to one cell, so hosts advertise the
// terminal dimensions as the guest's logical size. Rects paint cell
// backgrounds, text paints one rune per cell, and translucent colors
// alpha-blend over whatever is already there.
package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/frontierhq/canvas-host/canvas"
)

// Cell is one terminal cell. A zero Rune renders as a space.
type Cell struct {
	Rune rune
	Fg   RGB
	Bg   RGB
}

// Renderer composites frames into a persistent cell grid. Without a
// clear color a frame paints over the previous contents, so a guest
// that only redraws damaged regions still produces a full screen.
// A Renderer is not safe for concurrent use.
type Renderer struct {
	cells  []Cell
	width  int
	height int
}

// NewRenderer returns a renderer for a width x height cell grid.
func NewRenderer(width, height int) *Renderer {
	r := &Renderer{}
	r.Resize(width, height)
	return r
}

// Size returns the current grid dimensions.
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}

// Resize adjusts the grid, reallocating only when capacity is
// insufficient. The grid is cleared to black.
func (r *Renderer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	size := width * height
	if cap(r.cells) < size {
		r.cells = make([]Cell, size)
	} else {
		r.cells = r.cells[:size]
	}
	r.width = width
	r.height = height
	r.fill(RGB{})
}

func (r *Renderer) fill(bg RGB) {
	for i := range r.cells {
		r.cells[i] = Cell{Bg: bg}
	}
}

func (r *Renderer) inBounds(x, y int) bool {
	return x >= 0 && x < r.width && y >= 0 && y < r.height
}

// Render composites one frame onto the grid in command order.
func (r *Renderer) Render(frame canvas.FrameOutput) {
	if frame.ClearColor != nil {
		r.fill(RGBFromColor(*frame.ClearColor))
	}
	for _, cmd := range frame.Commands {
		switch c := cmd.(type) {
		case canvas.FillRect:
			r.fillRect(c)
		case canvas.DrawText:
			r.drawText(c)
		}
	}
}

func (r *Renderer) fillRect(c canvas.FillRect) {
	if c.Size.X <= 0 || c.Size.Y <= 0 {
		return
	}
	x0 := int(math.Round(float64(c.Origin.X)))
	y0 := int(math.Round(float64(c.Origin.Y)))
	x1 := int(math.Round(float64(c.Origin.X + c.Size.X)))
	y1 := int(math.Round(float64(c.Origin.Y + c.Size.Y)))

	src := RGBFromColor(c.Color)
	alpha := float64(c.Color.A)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if !r.inBounds(x, y) {
				continue
			}
			cell := &r.cells[y*r.width+x]
			cell.Bg = Blend(cell.Bg, src, alpha)
			// An opaque fill erases glyphs that sat underneath.
			if alpha >= 1.0 {
				cell.Rune = 0
			}
		}
	}
}

// drawText writes the string one rune per cell, left to right. Glyph
// size has no cell-grid representation and is ignored.
func (r *Renderer) drawText(c canvas.DrawText) {
	x := int(math.Round(float64(c.Origin.X)))
	y := int(math.Round(float64(c.Origin.Y)))

	src := RGBFromColor(c.Color)
	alpha := float64(c.Color.A)
	for _, ru := range c.Text {
		if r.inBounds(x, y) {
			cell := &r.cells[y*r.width+x]
			cell.Rune = ru
			cell.Fg = Blend(cell.Bg, src, alpha)
		}
		x++
	}
}

// Lines renders the grid as styled terminal lines, one per row. Runs
// of identically colored cells share a style so the output stays
// compact.
func (r *Renderer) Lines() []string {
	lines := make([]string, r.height)
	for y := 0; y < r.height; y++ {
		var sb strings.Builder
		row := r.cells[y*r.width : (y+1)*r.width]
		for start := 0; start < len(row); {
			end := start + 1
			for end < len(row) && row[end].Fg == row[start].Fg && row[end].Bg == row[start].Bg {
				end++
			}
			var run strings.Builder
			for _, cell := range row[start:end] {
				ru := cell.Rune
				if ru == 0 {
					ru = ' '
				}
				run.WriteRune(ru)
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(row[start].Fg.Hex())).
				Background(lipgloss.Color(row[start].Bg.Hex()))
			sb.WriteString(style.Render(run.String()))
			start = end
		}
		lines[y] = sb.String()
	}
	return lines
}
