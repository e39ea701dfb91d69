/*
Package grid implements the quantized pixel grid that is compiled into mlog
programs.

A grid is a rectangle of cells, each one either transparent or an opaque
color with four 8-bit channels. Row 0 is the top of the picture. The grid is
produced once by Prepare and is read-only afterwards.
*/
package grid

import (
	"errors"
	"fmt"
	"image/color"
)

var errBadSize = errors.New("grid: invalid dimensions")

// Color is an exact four channel color. Two colors are equal only if every
// channel is equal, so Color can be used directly as a map key.
type Color struct {
	R, G, B, A uint8
}

// Less orders colors channel-wise, red major.
func (c Color) Less(o Color) bool {
	switch {
	case c.R != o.R:
		return c.R < o.R
	case c.G != o.G:
		return c.G < o.G
	case c.B != o.B:
		return c.B < o.B
	default:
		return c.A < o.A
	}
}

// RGBA implements the color.Color interface.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{c.R, c.G, c.B, c.A}.RGBA()
}

func (c Color) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", c.R, c.G, c.B, c.A)
}

// Cell is a single grid position. The zero value is transparent.
type Cell struct {
	Color  Color
	Opaque bool
}

// Opaque returns an opaque cell of color c.
func Opaque(c Color) Cell {
	return Cell{Color: c, Opaque: true}
}

// Grid is a height by width collection of cells.
type Grid struct {
	width, height int
	cells         []Cell
}

// New returns a fully transparent grid.
func New(width, height int) (*Grid, error) {
	if width < 0 || height < 0 {
		return nil, errBadSize
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
	}, nil
}

// FromRows builds a grid from rows of cells. Every row must be the same
// length.
func FromRows(rows [][]Cell) (*Grid, error) {
	var w int
	if len(rows) > 0 {
		w = len(rows[0])
	}
	g, err := New(w, len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("grid: row %d has %d cells, expected %d", y, len(row), w)
		}
		copy(g.cells[y*w:], row)
	}
	return g, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int {
	return g.width
}

// Height returns the number of rows.
func (g *Grid) Height() int {
	return g.height
}

func (g *Grid) inside(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// At returns the cell at column x, row y. Positions outside the grid are
// transparent.
func (g *Grid) At(x, y int) Cell {
	if !g.inside(x, y) {
		return Cell{}
	}
	return g.cells[y*g.width+x]
}

// Set stores the cell at column x, row y. Positions outside the grid are
// ignored.
func (g *Grid) Set(x, y int, c Cell) {
	if !g.inside(x, y) {
		return
	}
	g.cells[y*g.width+x] = c
}

// Colors returns the number of distinct opaque colors in the grid.
func (g *Grid) Colors() int {
	seen := make(map[Color]struct{})
	for _, c := range g.cells {
		if c.Opaque {
			seen[c.Color] = struct{}{}
		}
	}
	return len(seen)
}
