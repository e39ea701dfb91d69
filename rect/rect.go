/*
Package rect decomposes a grid into same-colored axis-aligned rectangles.

Every opaque cell is covered by exactly one rectangle and transparent cells
are never covered. The decomposition is greedy: each rectangle is grown as
wide as possible first, then as tall as possible, from the first unassigned
cell in row-major order. It is deterministic but not minimal.
*/
package rect

import (
	"github.com/bodgit/img2mlog/grid"
)

// Rect is a block of identical color in grid coordinates.
type Rect struct {
	X, Y  int
	W, H  int
	Color grid.Color
}

// Contains reports whether the cell at column x, row y is inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Area returns the number of cells covered by r.
func (r Rect) Area() int {
	return r.W * r.H
}

type decomposer struct {
	g    *grid.Grid
	used []bool
}

func (d *decomposer) assigned(x, y int) bool {
	return d.used[y*d.g.Width()+x]
}

func (d *decomposer) assign(x, y, w, h int) {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			d.used[yy*d.g.Width()+xx] = true
		}
	}
}

// free reports whether the cell is unassigned and has exactly color c
func (d *decomposer) free(x, y int, c grid.Color) bool {
	if d.assigned(x, y) {
		return false
	}
	cell := d.g.At(x, y)
	return cell.Opaque && cell.Color == c
}

func (d *decomposer) grow(x, y int, c grid.Color) Rect {
	w := 1
	for x+w < d.g.Width() && d.free(x+w, y, c) {
		w++
	}

	h := 1
rows:
	for y+h < d.g.Height() {
		for xx := x; xx < x+w; xx++ {
			if !d.free(xx, y+h, c) {
				break rows
			}
		}
		h++
	}

	return Rect{X: x, Y: y, W: w, H: h, Color: c}
}

// Decompose returns the rectangles covering the opaque cells of g in the
// order they were discovered.
func Decompose(g *grid.Grid) []Rect {
	d := decomposer{
		g:    g,
		used: make([]bool, g.Width()*g.Height()),
	}

	var rects []Rect
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if d.assigned(x, y) {
				continue
			}
			cell := g.At(x, y)
			if !cell.Opaque {
				d.assign(x, y, 1, 1)
				continue
			}
			r := d.grow(x, y, cell.Color)
			d.assign(r.X, r.Y, r.W, r.H)
			rects = append(rects, r)
		}
	}

	return rects
}
