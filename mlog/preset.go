package mlog

import (
	"fmt"
	"sort"
)

// Preset describes the drawable area of a display.
type Preset struct {
	Width, Height int
	Margin        int
}

// Presets lists the supported display layouts by name.
var Presets = map[string]Preset{
	"small-inner": {80, 80, 4},
	"small-full":  {88, 88, 0},
	"large":       {176, 176, 0},
}

// DefaultPreset is used when no preset is named.
const DefaultPreset = "small-inner"

// LookupPreset returns the named preset.
func LookupPreset(name string) (Preset, error) {
	p, ok := Presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("mlog: unknown preset %q", name)
	}
	return p, nil
}

// PresetNames returns the preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for k := range Presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Upscales returns every upscale factor that evenly divides both
// dimensions of p.
func (p Preset) Upscales() []int {
	var f []int
	for i := 1; i <= p.Width && i <= p.Height; i++ {
		if p.Width%i == 0 && p.Height%i == 0 {
			f = append(f, i)
		}
	}
	return f
}
