package img2mlog

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/bodgit/img2mlog/grid"
	"github.com/bodgit/img2mlog/manifest"
	"github.com/bodgit/img2mlog/mlog"
	"github.com/bodgit/img2mlog/preview"
	"github.com/bodgit/img2mlog/rect"
)

// PreviewFilename is the name of the preview written next to the programs
const PreviewFilename = "preview.png"

// Compile turns an already decoded image into programs. It also returns the
// rectangles the programs draw.
func Compile(m image.Image, opts Options) ([]mlog.Program, []rect.Rect, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}

	cfg, err := opts.Config()
	if err != nil {
		return nil, nil, err
	}

	g, err := grid.Prepare(m, opts.grid(cfg))
	if err != nil {
		return nil, nil, err
	}

	rects := rect.Decompose(g)

	programs, err := mlog.Emit(rects, cfg)
	if err != nil {
		return nil, nil, err
	}

	return programs, rects, nil
}

func (c *Converter) convert(file string, opts Options, withRects bool) ([]mlog.Program, []rect.Rect, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}

	b, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, nil, err
	}
	sha := fmt.Sprintf("%X", sha1.Sum(b))

	// Rectangles aren't cached so a preview always recompiles
	if c.db != nil && !withRects {
		programs, err := c.db.FindPrograms(sha, opts.key())
		if err != nil {
			return nil, nil, err
		}
		if programs != nil {
			c.logger.Printf("Using cached programs for \"%s\"\n", file)
			return programs, nil, nil
		}
	}

	m, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", file, err)
	}

	programs, rects, err := Compile(m, opts)
	if err != nil {
		return nil, nil, err
	}
	c.logger.Printf("Compiled \"%s\" into %d rectangles and %d programs\n", file, len(rects), len(programs))

	if c.db != nil {
		if err := c.db.StorePrograms(sha, opts.key(), programs); err != nil {
			return nil, nil, err
		}
	}

	return programs, rects, nil
}

// Convert reads the image in file and returns the programs that draw it.
func (c *Converter) Convert(file string, opts Options) ([]mlog.Program, error) {
	programs, _, err := c.convert(file, opts, false)
	return programs, err
}

func writeFile(name string, b []byte) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err = f.Write(b); err != nil {
		return err
	}

	return f.Close()
}

// WritePrograms writes each program to dir as prog_01.mlog, prog_02.mlog,
// and so on, followed by the manifest.
func WritePrograms(dir string, programs []mlog.Program) error {
	m := manifest.New(programs)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	for i, p := range programs {
		if err := writeFile(filepath.Join(dir, manifest.Name(i)), p.Bytes()); err != nil {
			return err
		}
	}

	b, err := m.MarshalText()
	if err != nil {
		return err
	}

	return writeFile(filepath.Join(dir, manifest.Filename), b)
}

// ConvertFile converts the image in file and writes the programs to the
// out directory.
func (c *Converter) ConvertFile(file, out string, opts Options) error {
	programs, rects, err := c.convert(file, opts, opts.Preview)
	if err != nil {
		return err
	}

	if err := WritePrograms(out, programs); err != nil {
		return err
	}

	if opts.Preview {
		cfg, err := opts.Config()
		if err != nil {
			return err
		}
		b := new(bytes.Buffer)
		if err := preview.Encode(b, rects, cfg); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(out, PreviewFilename), b.Bytes()); err != nil {
			return err
		}
	}

	c.logger.Printf("Wrote %d programs to \"%s\"\n", len(programs), out)
	if len(programs) > 1 {
		c.logger.Printf("Run %s first, it clears the display\n", manifest.Name(0))
	}

	return nil
}
