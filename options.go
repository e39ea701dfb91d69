package img2mlog

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/bodgit/img2mlog/grid"
	"github.com/bodgit/img2mlog/mlog"
)

var (
	errRGB            = errors.New("color must be in the form r,g,b")
	errChannel        = errors.New("color channels must be between 0 and 255")
	errAlphaThreshold = errors.New("alpha threshold must be between 0 and 255")
	errColors         = errors.New("number of colors must be between 0 and 256")
)

// Options covers everything that controls a conversion.
type Options struct {
	Preset         string
	Upscale        int
	Resample       string
	Colors         int
	Background     color.RGBA
	AlphaThreshold int
	Display        string
	MaxLines       int
	DrawBufLimit   int
	UseEnd         bool
	Wait           float64
	WaitEvery      int
	// Preview also writes a PNG of the expected display contents
	Preview bool
}

// DefaultOptions returns the options used when nothing is overridden.
func DefaultOptions() Options {
	return Options{
		Preset:         mlog.DefaultPreset,
		Upscale:        2,
		Resample:       "lanczos",
		Background:     color.RGBA{0, 0, 0, 0xff},
		AlphaThreshold: 1,
		Display:        mlog.DefaultDisplay,
		MaxLines:       mlog.DefaultMaxLines,
		DrawBufLimit:   mlog.DefaultDrawBufLimit,
		WaitEvery:      mlog.DefaultWaitEvery,
	}
}

// ParseRGB parses a color written as r,g,b.
func ParseRGB(s string) (color.RGBA, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, errRGB
	}
	var v [3]uint8
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return color.RGBA{}, errRGB
		}
		if n < 0 || n > 0xff {
			return color.RGBA{}, errChannel
		}
		v[i] = uint8(n)
	}
	return color.RGBA{v[0], v[1], v[2], 0xff}, nil
}

// Config builds the program emitter configuration.
func (o Options) Config() (mlog.Config, error) {
	p, err := mlog.LookupPreset(o.Preset)
	if err != nil {
		return mlog.Config{}, err
	}
	return mlog.Config{
		Preset:       p,
		Upscale:      o.Upscale,
		Background:   grid.Color{R: o.Background.R, G: o.Background.G, B: o.Background.B, A: 0xff},
		Display:      o.Display,
		MaxLines:     o.MaxLines,
		DrawBufLimit: o.DrawBufLimit,
		Stop:         !o.UseEnd,
		Wait:         o.Wait,
		WaitEvery:    o.WaitEvery,
	}, nil
}

func (o Options) grid(cfg mlog.Config) grid.Options {
	w, h := cfg.GridSize()
	return grid.Options{
		Width:          w,
		Height:         h,
		Resample:       o.Resample,
		Colors:         o.Colors,
		Background:     o.Background,
		AlphaThreshold: uint8(o.AlphaThreshold),
	}
}

// Validate reports any configuration error before work starts.
func (o Options) Validate() error {
	cfg, err := o.Config()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if o.AlphaThreshold < 0 || o.AlphaThreshold > 0xff {
		return errAlphaThreshold
	}
	if o.Colors < 0 || o.Colors > 256 {
		return errColors
	}
	for _, r := range grid.Resamplers() {
		if r == o.Resample {
			return nil
		}
	}
	return fmt.Errorf("unknown resample filter %q", o.Resample)
}

// key identifies the options that affect the generated programs. The wait
// is kept exact, any positive value turns pacing on even if it prints as 0.
func (o Options) key() string {
	return fmt.Sprintf("%s/%d/%s/%d/%d,%d,%d/%d/%s/%d/%d/%t/%s/%d",
		o.Preset, o.Upscale, o.Resample, o.Colors,
		o.Background.R, o.Background.G, o.Background.B,
		o.AlphaThreshold, o.Display, o.MaxLines, o.DrawBufLimit, o.UseEnd,
		strconv.FormatFloat(o.Wait, 'g', -1, 64), o.WaitEvery)
}
