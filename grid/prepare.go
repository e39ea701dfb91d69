package grid

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

var errUnknownResample = errors.New("grid: unknown resample filter")

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	x *= math.Pi
	return math.Sin(x) / x
}

// Lanczos with a = 3
var lanczos = &draw.Kernel{
	Support: 3,
	At: func(t float64) float64 {
		if t < 0 {
			t = -t
		}
		if t >= 3 {
			return 0
		}
		return sinc(t) * sinc(t/3)
	},
}

var resamplers = map[string]draw.Interpolator{
	"nearest":  draw.NearestNeighbor,
	"bilinear": draw.BiLinear,
	"bicubic":  draw.CatmullRom,
	"lanczos":  lanczos,
}

// Resamplers returns the supported resample filter names, sorted.
func Resamplers() []string {
	names := make([]string, 0, len(resamplers))
	for k := range resamplers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Options controls how an image is turned into a grid.
type Options struct {
	// Width and Height are the grid dimensions in cells
	Width, Height int
	// Resample names the filter used to scale the image, see Resamplers
	Resample string
	// Colors limits the number of distinct opaque colors, zero disables
	// quantization
	Colors int
	// Background is blended under partially transparent pixels
	Background color.RGBA
	// AlphaThreshold is the alpha below which a pixel becomes transparent
	AlphaThreshold uint8
}

func blend(c color.NRGBA, bg color.RGBA) Color {
	switch c.A {
	case 0xff:
		return Color{c.R, c.G, c.B, 0xff}
	case 0:
		return Color{bg.R, bg.G, bg.B, 0xff}
	}
	af := float64(c.A) / 255
	mix := func(v, b uint8) uint8 {
		return uint8(math.Round(float64(v)*af + float64(b)*(1-af)))
	}
	return Color{mix(c.R, bg.R), mix(c.G, bg.G), mix(c.B, bg.B), 0xff}
}

// Replace every opaque cell with its nearest color in a median cut palette
// of at most n colors
func (g *Grid) quantize(n int) {
	var opaque []int
	for i, c := range g.cells {
		if c.Opaque {
			opaque = append(opaque, i)
		}
	}
	if len(opaque) == 0 {
		return
	}

	// Only opaque cells take part in building the palette
	m := image.NewNRGBA(image.Rect(0, 0, len(opaque), 1))
	for x, i := range opaque {
		c := g.cells[i].Color
		m.SetNRGBA(x, 0, color.NRGBA{c.R, c.G, c.B, c.A})
	}

	q := quantize.MedianCutQuantizer{}
	p := q.Quantize(make(color.Palette, 0, n), m)
	if len(p) == 0 {
		return
	}

	cache := make(map[Color]Color)
	for _, i := range opaque {
		c := g.cells[i].Color
		nc, ok := cache[c]
		if !ok {
			v := color.NRGBAModel.Convert(p.Convert(c)).(color.NRGBA)
			nc = Color{v.R, v.G, v.B, v.A}
			cache[c] = nc
		}
		g.cells[i].Color = nc
	}
}

// Prepare scales m to the requested grid size, drops pixels below the alpha
// threshold, blends the remainder over the background and optionally
// reduces the number of colors.
func Prepare(m image.Image, o Options) (*Grid, error) {
	if o.Width <= 0 || o.Height <= 0 {
		return nil, errBadSize
	}

	interp, ok := resamplers[o.Resample]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownResample, o.Resample)
	}

	dst := image.NewRGBA(image.Rect(0, 0, o.Width, o.Height))
	interp.Scale(dst, dst.Bounds(), m, m.Bounds(), draw.Src, nil)

	g, err := New(o.Width, o.Height)
	if err != nil {
		return nil, err
	}

	for y := 0; y < o.Height; y++ {
		for x := 0; x < o.Width; x++ {
			c := color.NRGBAModel.Convert(dst.RGBAAt(x, y)).(color.NRGBA)
			if c.A < o.AlphaThreshold {
				continue
			}
			g.Set(x, y, Opaque(blend(c, o.Background)))
		}
	}

	if o.Colors > 0 {
		g.quantize(o.Colors)
	}

	return g, nil
}
