/*
Package mlog compiles rectangles into programs for the logic processor
drawing machine.

A processor program is limited in the number of instructions it can hold and
a display only accepts a limited number of buffered draw operations between
flushes, so a picture is usually split across several programs. The first
program also clears the display to the background color and has to be run
before the others.

Each program has the same skeleton:

	jump 2 notEqual display1 null
	end
	draw clear 0 0 0 0 0 0        (first program only)
	draw color 255 0 0 255 0 0
	draw rect 4 80 8 4 0 0
	...
	drawflush display1
	stop
*/
package mlog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bodgit/img2mlog/grid"
)

// The guard jumps over its own end instruction once the display is linked
const guardOffset = 2

func guard(display string) string {
	return fmt.Sprintf("jump %d notEqual %s null", guardOffset, display)
}

func clearDisplay(bg grid.Color) string {
	return fmt.Sprintf("draw clear %d %d %d 0 0 0", bg.R, bg.G, bg.B)
}

func setColor(c grid.Color) string {
	return fmt.Sprintf("draw color %d %d %d %d 0 0", c.R, c.G, c.B, c.A)
}

func drawRect(x, y, w, h int) string {
	return fmt.Sprintf("draw rect %d %d %d %d 0 0", x, y, w, h)
}

func drawFlush(display string) string {
	return "drawflush " + display
}

// FormatSeconds renders a wait duration with trailing zeros and decimal
// point removed, to at most six decimal places.
func FormatSeconds(t float64) string {
	s := strings.TrimRight(strconv.FormatFloat(t, 'f', 6, 64), "0")
	s = strings.TrimRight(s, ".")
	if s == "" {
		return "0"
	}
	return s
}

func wait(t float64) string {
	return "wait " + FormatSeconds(t)
}

const (
	end  = "end"
	stop = "stop"
)
