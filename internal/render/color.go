// Package render draws choropleth maps and charts as PNG files, in pure
// Go. Boundary geometries are filled with a color ramp keyed by metric
// value; areas with no resolvable metric get a distinct no-data fill so
// the map stays geographically complete.
package render

import (
	"image/color"
	"math"

	"github.com/rotisserie/eris"
)

// NoDataFill is the light-grey treatment for areas without a metric.
var NoDataFill = color.RGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 0xff}

// Ramp is a sequential color ramp: anchor colors at evenly spaced
// positions, linearly interpolated.
type Ramp struct {
	Name    string
	Anchors []color.RGBA
}

// Ramps available to map configuration, anchored on the palettes the
// published maps used.
var (
	RampReds = Ramp{Name: "reds", Anchors: []color.RGBA{
		{0xff, 0xf5, 0xf0, 0xff},
		{0xfc, 0xa0, 0x8b, 0xff},
		{0xcb, 0x18, 0x1d, 0xff},
		{0x67, 0x00, 0x0d, 0xff},
	}}
	RampViridis = Ramp{Name: "viridis", Anchors: []color.RGBA{
		{0x44, 0x01, 0x54, 0xff},
		{0x3b, 0x52, 0x8b, 0xff},
		{0x21, 0x91, 0x8c, 0xff},
		{0x5e, 0xc9, 0x62, 0xff},
		{0xfd, 0xe7, 0x25, 0xff},
	}}
	RampPlasma = Ramp{Name: "plasma", Anchors: []color.RGBA{
		{0x0d, 0x08, 0x87, 0xff},
		{0x7e, 0x03, 0xa8, 0xff},
		{0xcc, 0x47, 0x78, 0xff},
		{0xf8, 0x96, 0x41, 0xff},
		{0xf0, 0xf9, 0x21, 0xff},
	}}
)

// RampByName resolves a configured ramp name.
func RampByName(name string) (Ramp, error) {
	switch name {
	case "", "plasma":
		return RampPlasma, nil
	case "reds":
		return RampReds, nil
	case "viridis":
		return RampViridis, nil
	default:
		return Ramp{}, eris.Errorf("render: unknown color ramp %q", name)
	}
}

// At maps t in [0,1] onto the ramp. Values outside the range clamp.
func (r Ramp) At(t float64) color.RGBA {
	if len(r.Anchors) == 0 {
		return NoDataFill
	}
	if math.IsNaN(t) || t <= 0 {
		return r.Anchors[0]
	}
	if t >= 1 {
		return r.Anchors[len(r.Anchors)-1]
	}
	scaled := t * float64(len(r.Anchors)-1)
	i := int(scaled)
	frac := scaled - float64(i)
	return lerpRGBA(r.Anchors[i], r.Anchors[i+1], frac)
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(a.R) + t*(float64(b.R)-float64(a.R))),
		G: uint8(float64(a.G) + t*(float64(b.G)-float64(a.G))),
		B: uint8(float64(a.B) + t*(float64(b.B)-float64(a.B))),
		A: 0xff,
	}
}

// bivariatePalettes holds the fixed "class i-j" fills for quantile
// cross-classification, keyed by quantile count.
var bivariatePalettes = map[int]map[string]color.RGBA{
	2: {
		"0-0": {0xe8, 0xe8, 0xe8, 0xff},
		"0-1": {0xb0, 0xd5, 0xdf, 0xff},
		"1-0": {0xe4, 0xac, 0xac, 0xff},
		"1-1": {0xad, 0x9e, 0xa5, 0xff},
	},
	3: {
		"0-0": {0xe8, 0xe8, 0xe8, 0xff},
		"0-1": {0xb0, 0xd5, 0xdf, 0xff},
		"0-2": {0x64, 0xac, 0xbe, 0xff},
		"1-0": {0xe4, 0xac, 0xac, 0xff},
		"1-1": {0xad, 0x9e, 0xa5, 0xff},
		"1-2": {0x62, 0x7f, 0x8c, 0xff},
		"2-0": {0xc8, 0x5a, 0x5a, 0xff},
		"2-1": {0x98, 0x53, 0x56, 0xff},
		"2-2": {0x57, 0x42, 0x49, 0xff},
	},
}

// BivariatePalette returns the fill table for an n×n classification.
// Only 2 and 3 quantiles have published palettes.
func BivariatePalette(n int) (map[string]color.RGBA, error) {
	p, ok := bivariatePalettes[n]
	if !ok {
		return nil, eris.Errorf("render: no bivariate palette for %d quantiles", n)
	}
	return p, nil
}
