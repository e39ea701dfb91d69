package mlog

import (
	"errors"
	"fmt"
	"math"

	"github.com/bodgit/img2mlog/grid"
	"github.com/bodgit/img2mlog/rect"
)

const (
	// DefaultDisplay is the usual name of the first linked display
	DefaultDisplay = "display1"
	// DefaultMaxLines is the processor instruction limit
	DefaultMaxLines = 1000
	// DefaultDrawBufLimit stays just under the display buffer size
	DefaultDrawBufLimit = 240
	// DefaultWaitEvery is the pacing interval used when waiting is enabled
	DefaultWaitEvery = 10

	maxDrawBufLimit = 256
)

var (
	errUpscale      = errors.New("mlog: upscale must evenly divide the display size")
	errDisplay      = errors.New("mlog: display name is empty")
	errDrawBufLimit = fmt.Errorf("mlog: draw buffer limit must be between 2 and %d", maxDrawBufLimit)
	errWait         = errors.New("mlog: wait time must be a finite number, not negative")
	errWaitEvery    = errors.New("mlog: wait interval must be positive")

	// ErrMaxLines is returned when a program cannot hold its skeleton and
	// at least one draw
	ErrMaxLines = errors.New("mlog: max lines too small for a program")
)

// Config controls how rectangles are turned into programs.
type Config struct {
	Preset  Preset
	Upscale int
	// Background is the clear color, alpha is ignored
	Background grid.Color
	// Display is the name of the linked display
	Display      string
	MaxLines     int
	DrawBufLimit int
	// Stop ends every program with stop rather than end, which would
	// otherwise loop and redraw forever
	Stop bool
	// Wait in seconds is inserted after every WaitEvery lines, zero
	// disables pacing
	Wait      float64
	WaitEvery int
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Preset:       Presets[DefaultPreset],
		Upscale:      2,
		Background:   grid.Color{A: 0xff},
		Display:      DefaultDisplay,
		MaxLines:     DefaultMaxLines,
		DrawBufLimit: DefaultDrawBufLimit,
		Stop:         true,
		WaitEvery:    DefaultWaitEvery,
	}
}

// GridSize returns the grid dimensions in cells.
func (c Config) GridSize() (int, int) {
	if c.Upscale <= 0 {
		return 0, 0
	}
	return c.Preset.Width / c.Upscale, c.Preset.Height / c.Upscale
}

// Device maps a rectangle in grid coordinates to display coordinates. The
// display origin is the bottom left corner so the y axis is flipped.
func (c Config) Device(r rect.Rect) (x, y, w, h int) {
	_, gh := c.GridSize()
	x = c.Preset.Margin + r.X*c.Upscale
	y = c.Preset.Margin + (gh-(r.Y+r.H))*c.Upscale
	w = r.W * c.Upscale
	h = r.H * c.Upscale
	return
}

func (c Config) inside(r rect.Rect) bool {
	gw, gh := c.GridSize()
	return r.W > 0 && r.H > 0 && r.X >= 0 && r.Y >= 0 && r.X+r.W <= gw && r.Y+r.H <= gh
}

func (c Config) pacing() bool {
	return c.Wait > 0 && c.WaitEvery > 0
}

// MinLines returns the smallest line budget that still fits the program
// skeleton plus one drawn rectangle in the first program.
func (c Config) MinLines() int {
	// guard, end, clear, drawflush, terminal
	n := 5
	// clear already occupies one buffer slot
	draws := 2
	if 1+draws > c.DrawBufLimit {
		draws++
	}
	n += draws
	if c.pacing() {
		n += draws / c.WaitEvery
	}
	return n
}

// Validate checks the configuration before anything is emitted.
func (c Config) Validate() error {
	if c.Upscale <= 0 || c.Preset.Width%c.Upscale != 0 || c.Preset.Height%c.Upscale != 0 {
		return fmt.Errorf("%w: %dx%d by %d", errUpscale, c.Preset.Width, c.Preset.Height, c.Upscale)
	}
	if c.Display == "" {
		return errDisplay
	}
	if c.DrawBufLimit < 2 || c.DrawBufLimit > maxDrawBufLimit {
		return errDrawBufLimit
	}
	if math.IsNaN(c.Wait) || math.IsInf(c.Wait, 0) || c.Wait < 0 {
		return errWait
	}
	if c.Wait > 0 && c.WaitEvery <= 0 {
		return errWaitEvery
	}
	if n := c.MinLines(); c.MaxLines < n {
		return fmt.Errorf("%w: %d < %d", ErrMaxLines, c.MaxLines, n)
	}
	return nil
}
