package manifest

import (
	"testing"

	"github.com/bodgit/img2mlog/grid"
	"github.com/bodgit/img2mlog/mlog"
	"github.com/bodgit/img2mlog/rect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One program for roughly every n/3 distinct colors
func programs(t *testing.T, n int) []mlog.Program {
	var rects []rect.Rect
	for i := 0; i < n; i++ {
		rects = append(rects, rect.Rect{X: i % 40, Y: i / 40, W: 1, H: 1, Color: grid.Color{R: uint8(i), G: uint8(i >> 8), A: 0xff}})
	}
	cfg := mlog.DefaultConfig()
	cfg.MaxLines = 12
	p, err := mlog.Emit(rects, cfg)
	require.NoError(t, err)
	return p
}

func TestName(t *testing.T) {
	assert.Equal(t, "prog_01.mlog", Name(0))
	assert.Equal(t, "prog_12.mlog", Name(11))
	assert.Equal(t, "prog_100.mlog", Name(99))
}

func TestManifest(t *testing.T) {
	p := programs(t, 20)
	require.True(t, len(p) > 1)

	m := New(p)
	assert.Equal(t, len(p), m.Length())
	assert.Equal(t, "prog_02.mlog", m.Entries[1].Name)
	assert.Equal(t, p[1].Len(), m.Entries[1].Lines)

	for i := range p {
		assert.NoError(t, m.Verify(i, p[i].Bytes()))
	}
	assert.Error(t, m.Verify(0, p[1].Bytes()))
	assert.Error(t, m.Verify(len(p), nil))

	b, err := m.MarshalText()
	require.NoError(t, err)

	n := new(Manifest)
	require.NoError(t, n.UnmarshalText(b))
	assert.Equal(t, m, n)
}

func TestUnmarshalText(t *testing.T) {
	m := new(Manifest)
	assert.Error(t, m.UnmarshalText(nil))
	assert.Error(t, m.UnmarshalText([]byte("prog_01.mlog lots 00000000\n")))

	require.NoError(t, m.UnmarshalText([]byte("prog_01.mlog 7 0000ABCD\n\n")))
	assert.Equal(t, []Entry{{"prog_01.mlog", 7, 0xabcd}}, m.Entries)
}

func TestManifestLarge(t *testing.T) {
	p := programs(t, 500)
	require.True(t, len(p) > 100)

	m := New(p)
	assert.Equal(t, "prog_100.mlog", m.Entries[99].Name)
	assert.Equal(t, Name(len(p)-1), m.Entries[len(p)-1].Name)

	b, err := m.MarshalText()
	require.NoError(t, err)

	n := new(Manifest)
	require.NoError(t, n.UnmarshalText(b))
	assert.Equal(t, m, n)
}
