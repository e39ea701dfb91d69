package img2mlog

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bodgit/img2mlog/grid"
	"github.com/bodgit/img2mlog/manifest"
	"github.com/bodgit/img2mlog/mlog"
	"github.com/bodgit/img2mlog/rect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, file string, m image.Image) {
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, m))
}

// Four horizontal stripes, the bottom one transparent
func stripes(w, h int) *image.NRGBA {
	colors := []color.NRGBA{
		{0xff, 0, 0, 0xff},
		{0, 0xff, 0, 0xff},
		{0, 0, 0xff, 0xff},
		{0, 0, 0, 0},
	}
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetNRGBA(x, y, colors[y*len(colors)/h])
		}
	}
	return m
}

func testOptions() Options {
	o := DefaultOptions()
	o.Resample = "nearest"
	return o
}

func testConverter(db *ProgramDB) *Converter {
	return New(db, log.New(ioutil.Discard, "", 0))
}

func TestCompile(t *testing.T) {
	programs, rects, err := Compile(stripes(40, 40), testOptions())
	require.NoError(t, err)

	// 40x40 grid, one rectangle per opaque stripe
	require.Len(t, rects, 3)
	require.Len(t, programs, 1)

	p := programs[0]
	assert.Equal(t, 1, p.Count("draw clear"))
	assert.Equal(t, 3, p.Count("draw color"))
	assert.Equal(t, 3, p.Count("draw rect"))

	// Sorted by color, so blue is drawn first, at the bottom of the
	// opaque area
	lines := p.Lines()
	assert.Equal(t, "draw color 0 0 255 255 0 0", lines[3])
	assert.Equal(t, "draw rect 4 24 80 20 0 0", lines[4])
}

func TestCompileInvalid(t *testing.T) {
	o := testOptions()
	o.Upscale = 3
	_, _, err := Compile(stripes(4, 4), o)
	assert.Error(t, err)
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "stripes.png")
	writeImage(t, file, stripes(80, 80))

	o := testOptions()
	o.MaxLines = 7
	o.Preview = true

	out := filepath.Join(dir, "out")
	require.NoError(t, testConverter(nil).ConvertFile(file, out, o))

	b, err := ioutil.ReadFile(filepath.Join(out, manifest.Filename))
	require.NoError(t, err)

	m := new(manifest.Manifest)
	require.NoError(t, m.UnmarshalText(b))
	require.Equal(t, 3, m.Length())

	for i, e := range m.Entries {
		b, err := ioutil.ReadFile(filepath.Join(out, e.Name))
		require.NoError(t, err)
		assert.NoError(t, m.Verify(i, b))
		assert.Equal(t, i == 0, strings.Contains(string(b), "draw clear"))
		assert.True(t, e.Lines <= o.MaxLines)
	}

	assert.FileExists(t, filepath.Join(out, PreviewFilename))
}

func TestConvertMissing(t *testing.T) {
	_, err := testConverter(nil).Convert(filepath.Join(t.TempDir(), "missing.png"), testOptions())
	assert.Error(t, err)
}

func TestConvertCache(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "stripes.png")
	writeImage(t, file, stripes(40, 40))

	db, err := NewProgramDB(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	logs := new(bytes.Buffer)
	c := New(db, log.New(logs, "", 0))
	o := testOptions()

	first, err := c.Convert(file, o)
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "Using cached")

	second, err := c.Convert(file, o)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "Using cached")
	assert.Equal(t, first, second)

	// Different file contents no longer match the checksum
	logs.Reset()
	writeImage(t, file, stripes(20, 40))
	_, err = c.Convert(file, o)
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "Using cached")

	logs.Reset()
	o.UseEnd = true
	third, err := c.Convert(file, o)
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "Using cached")
	assert.NotEqual(t, first, third)

	// A tiny wait still enables pacing and must not match the unpaced
	// programs
	o.WaitEvery = 2
	unpaced, err := c.Convert(file, o)
	require.NoError(t, err)
	assert.Equal(t, 0, unpaced[0].Count("wait"))

	logs.Reset()
	o.Wait = 1e-7
	paced, err := c.Convert(file, o)
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "Using cached")
	assert.True(t, paced[0].Count("wait") > 0)

	require.NoError(t, db.Clear())
	programs, err := db.FindPrograms("missing", o.key())
	require.NoError(t, err)
	assert.Nil(t, programs)
}

func TestProgramDB(t *testing.T) {
	db, err := NewProgramDB(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	programs, _, err := Compile(stripes(40, 40), testOptions())
	require.NoError(t, err)

	require.NoError(t, db.StorePrograms("ABC", "key", programs))
	require.NoError(t, db.StorePrograms("ABC", "key", programs))

	found, err := db.FindPrograms("ABC", "key")
	require.NoError(t, err)
	assert.Equal(t, programs, found)

	found, err = db.FindPrograms("ABC", "other")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	writeImage(t, filepath.Join(in, "a.png"), stripes(40, 40))
	writeImage(t, filepath.Join(in, "sub", "b.png"), stripes(16, 16))
	writeImage(t, filepath.Join(in, ".hidden", "c.png"), stripes(16, 16))
	require.NoError(t, ioutil.WriteFile(filepath.Join(in, "notes.txt"), []byte("hello"), 0644))

	out := filepath.Join(dir, "out")
	require.NoError(t, testConverter(nil).Batch(in, out, testOptions()))

	assert.FileExists(t, filepath.Join(out, "a", manifest.Name(0)))
	assert.FileExists(t, filepath.Join(out, "sub", "b", manifest.Name(0)))
	_, err := os.Stat(filepath.Join(out, ".hidden"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(out, "notes"))
	assert.True(t, os.IsNotExist(err))
}

func TestBatchSameName(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	writeImage(t, filepath.Join(in, "a.png"), stripes(16, 16))
	writeImage(t, filepath.Join(in, "a.gif"), stripes(16, 16))

	err := testConverter(nil).Batch(in, filepath.Join(dir, "out"), testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both write to")
}

func TestBatchSkipsOutput(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(in, "out")
	writeImage(t, filepath.Join(in, "a.png"), stripes(16, 16))

	// Left over from an earlier run
	writeImage(t, filepath.Join(out, "old", PreviewFilename), stripes(16, 16))

	o := testOptions()
	o.Preview = true
	require.NoError(t, testConverter(nil).Batch(in, out, o))

	assert.FileExists(t, filepath.Join(out, "a", PreviewFilename))
	_, err := os.Stat(filepath.Join(out, "out"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteProgramsMany(t *testing.T) {
	var rects []rect.Rect
	for i := 0; i < 500; i++ {
		rects = append(rects, rect.Rect{X: i % 40, Y: i / 40, W: 1, H: 1, Color: grid.Color{R: uint8(i), G: uint8(i >> 8), A: 0xff}})
	}
	cfg := mlog.DefaultConfig()
	cfg.MaxLines = 10
	programs, err := mlog.Emit(rects, cfg)
	require.NoError(t, err)
	require.True(t, len(programs) > 100)

	dir := t.TempDir()
	require.NoError(t, WritePrograms(dir, programs))

	b, err := ioutil.ReadFile(filepath.Join(dir, manifest.Filename))
	require.NoError(t, err)
	m := new(manifest.Manifest)
	require.NoError(t, m.UnmarshalText(b))
	require.Equal(t, len(programs), m.Length())

	last := len(programs) - 1
	b, err = ioutil.ReadFile(filepath.Join(dir, manifest.Name(last)))
	require.NoError(t, err)
	assert.NoError(t, m.Verify(last, b))
	assert.FileExists(t, filepath.Join(dir, "prog_100.mlog"))
}

func TestBatchError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0644))

	assert.Error(t, testConverter(nil).Batch(dir, filepath.Join(dir, "out"), testOptions()))
}
