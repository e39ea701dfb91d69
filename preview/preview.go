/*
Package preview renders what a set of programs will draw on the display.

The rectangles are painted through the same coordinate transform used when
emitting draw instructions, so the preview also shows the margin and the
vertical flip exactly as the display would.
*/
package preview

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/bodgit/img2mlog/mlog"
	"github.com/bodgit/img2mlog/rect"
)

// Size returns the dimensions of the whole display surface for p
func Size(p mlog.Preset) (int, int) {
	return p.Width + 2*p.Margin, p.Height + 2*p.Margin
}

// Render paints rects onto an image of the display cleared to the
// background color.
func Render(rects []rect.Rect, cfg mlog.Config) *image.RGBA {
	w, h := Size(cfg.Preset)
	m := image.NewRGBA(image.Rect(0, 0, w, h))

	bg := color.RGBA{cfg.Background.R, cfg.Background.G, cfg.Background.B, 0xff}
	draw.Draw(m, m.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	for _, r := range rects {
		x, y, rw, rh := cfg.Device(r)
		// Back to image orientation with the origin at the top left
		dr := image.Rect(x, h-(y+rh), x+rw, h-y)
		draw.Draw(m, dr, &image.Uniform{r.Color}, image.Point{}, draw.Over)
	}

	return m
}

// Encode writes a PNG preview of rects to w.
func Encode(w io.Writer, rects []rect.Rect, cfg mlog.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return png.Encode(w, Render(rects, cfg))
}
