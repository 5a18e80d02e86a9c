package images

import (
	"fmt"
	"sort"
	"strings"
)

// Preset is a named standard frame size that can seed the size policy.
type Preset struct {
	Name        string
	AspectRatio string
	Size        Dimensions
}

// MegaPixels returns the preset area in megapixels rounded to two decimals.
func (p Preset) MegaPixels() float64 {
	if p.Size.Width <= 0 || p.Size.Height <= 0 {
		return 0
	}
	mp := float64(p.Size.Width*p.Size.Height) / 1_000_000.0
	return float64(int(mp*100+0.5)) / 100
}

func (p Preset) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", p.Name, p.Size.Width, p.Size.Height, p.MegaPixels())
}

// presets is keyed by the lowercased preset name.
var presets = map[string]Preset{}

func init() {
	for _, p := range []Preset{
		{"nHD", "16:9", Dimensions{640, 360}},
		{"VGA", "4:3", Dimensions{640, 480}},
		{"FWVGA", "16:9", Dimensions{854, 480}},
		{"SVGA", "4:3", Dimensions{800, 600}},
		{"qHD", "16:9", Dimensions{960, 540}},
		{"720p", "16:9", Dimensions{1280, 720}},
		{"1MP", "5:4", Dimensions{1280, 1024}},
		{"1080p", "16:9", Dimensions{1920, 1080}},
		{"2MP", "4:3", Dimensions{1600, 1200}},
		{"1440p", "16:9", Dimensions{2560, 1440}},
		{"3MP", "4:3", Dimensions{2048, 1536}},
		{"6MP", "3:2", Dimensions{3072, 2048}},
		{"4K", "16:9", Dimensions{3840, 2160}},
		{"12MP", "4:3", Dimensions{4000, 3000}},
		{"8K", "16:9", Dimensions{7680, 4320}},
	} {
		presets[strings.ToLower(p.Name)] = p
	}
}

// LookupPreset finds a preset by name, ignoring case.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[strings.ToLower(name)]
	return p, ok
}

// Presets returns all presets ordered by area, smallest first.
func Presets() []Preset {
	all := make([]Preset, 0, len(presets))
	for _, p := range presets {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		ai, aj := all[i].Size.Width*all[i].Size.Height, all[j].Size.Width*all[j].Size.Height
		if ai != aj {
			return ai < aj
		}
		return all[i].Name < all[j].Name
	})
	return all
}

// LargestPresetWithin returns the largest preset that fits inside bounds on both axes.
func LargestPresetWithin(bounds Dimensions) (Preset, bool) {
	var best Preset
	found := false
	for _, p := range Presets() {
		if p.Size.Width <= bounds.Width && p.Size.Height <= bounds.Height {
			best, found = p, true
		}
	}
	return best, found
}
