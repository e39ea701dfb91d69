package mlog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bodgit/img2mlog/grid"
	"github.com/bodgit/img2mlog/rect"
)

// Lines kept free for the closing drawflush and terminal instruction
const reserved = 2

var errBounds = errors.New("mlog: rectangle outside the grid")

// emitter holds the state of the program under construction. It is reset
// at every program boundary.
type emitter struct {
	cfg      Config
	programs []Program

	lines     []string
	buffered  int
	color     grid.Color
	hasColor  bool
	sinceWait int
}

func (e *emitter) start() {
	e.lines = []string{guard(e.cfg.Display), end}
	e.buffered = 0
	e.hasColor = false
	e.sinceWait = 0

	if len(e.programs) == 0 {
		e.lines = append(e.lines, clearDisplay(e.cfg.Background))
		e.buffered++
	}
}

func (e *emitter) finalize() {
	e.lines = append(e.lines, drawFlush(e.cfg.Display))
	if e.cfg.Stop {
		e.lines = append(e.lines, stop)
	} else {
		e.lines = append(e.lines, end)
	}
	e.programs = append(e.programs, Program{lines: e.lines})
	e.lines = nil
}

// waits returns how many wait lines n more counted lines would trigger
func (e *emitter) waits(n int) int {
	if !e.cfg.pacing() {
		return 0
	}
	return (e.sinceWait + n) / e.cfg.WaitEvery
}

func (e *emitter) fits(n int) bool {
	return len(e.lines)+n+e.waits(n)+reserved <= e.cfg.MaxLines
}

func (e *emitter) appendLine(line string) {
	e.lines = append(e.lines, line)
	if !e.cfg.pacing() {
		return
	}
	e.sinceWait++
	if e.sinceWait >= e.cfg.WaitEvery {
		e.lines = append(e.lines, wait(e.cfg.Wait))
		e.sinceWait = 0
	}
}

// unit returns the number of draw operations needed to draw a rectangle
// of color c and whether the buffer must be flushed first
func (e *emitter) unit(c grid.Color) (int, bool) {
	ops := 1
	if !e.hasColor || e.color != c {
		ops++
	}
	if e.buffered+ops > e.cfg.DrawBufLimit {
		// Flushing forgets the color
		return 2, true
	}
	return ops, false
}

// cost returns the number of counted lines needed to draw a rectangle of
// color c
func (e *emitter) cost(c grid.Color) int {
	ops, flush := e.unit(c)
	if flush {
		return ops + 1
	}
	return ops
}

func (e *emitter) ensureCapacity(c grid.Color) error {
	if e.fits(e.cost(c)) {
		return nil
	}
	e.finalize()
	e.start()
	if !e.fits(e.cost(c)) {
		return ErrMaxLines
	}
	return nil
}

func (e *emitter) draw(r rect.Rect) error {
	if err := e.ensureCapacity(r.Color); err != nil {
		return err
	}

	if _, flush := e.unit(r.Color); flush {
		e.appendLine(drawFlush(e.cfg.Display))
		e.buffered = 0
		e.hasColor = false
	}

	if !e.hasColor || e.color != r.Color {
		e.appendLine(setColor(r.Color))
		e.buffered++
		e.color, e.hasColor = r.Color, true
	}

	e.appendLine(drawRect(e.cfg.Device(r)))
	e.buffered++

	return nil
}

// Group rectangles by color, colors in ascending order and rectangles in
// their original order within each color
func group(rects []rect.Rect) [][]rect.Rect {
	byColor := make(map[grid.Color][]rect.Rect)
	var colors []grid.Color
	for _, r := range rects {
		if _, ok := byColor[r.Color]; !ok {
			colors = append(colors, r.Color)
		}
		byColor[r.Color] = append(byColor[r.Color], r)
	}
	sort.Slice(colors, func(i, j int) bool { return colors[i].Less(colors[j]) })

	groups := make([][]rect.Rect, 0, len(colors))
	for _, c := range colors {
		groups = append(groups, byColor[c])
	}
	return groups
}

// Emit packs the rectangles into as many programs as needed. The
// rectangles must lie within a grid of the size reported by cfg.GridSize,
// as that height is used to flip them onto the display.
//
// A rectangle is always emitted together with the flush and color change
// it needs. The buffer is flushed when the next rectangle would push it
// past cfg.DrawBufLimit, and a new program is started when the next
// rectangle would not fit, so a color is never left at the end of one
// program for a rectangle drawn in the next. Either every program is
// returned or an error.
func Emit(rects []rect.Rect, cfg Config) ([]Program, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, r := range rects {
		if !cfg.inside(r) {
			return nil, fmt.Errorf("%w: %dx%d at %d,%d", errBounds, r.W, r.H, r.X, r.Y)
		}
	}

	e := emitter{cfg: cfg}
	e.start()

	for _, g := range group(rects) {
		for _, r := range g {
			if err := e.draw(r); err != nil {
				return nil, err
			}
		}
	}

	e.finalize()

	return e.programs, nil
}
