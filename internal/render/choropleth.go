package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/citydatalab/airhealth/internal/model"
)

// MapOptions configures a rendered map.
type MapOptions struct {
	Title  string
	Legend string
	Width  int
	Height int
	Ramp   Ramp
	// KeyTransform maps a boundary feature key onto the metric key, e.g.
	// truncating a postal code to its ZIP3 prefix. Nil means identity.
	KeyTransform func(string) string
}

func (o *MapOptions) defaults() {
	if o.Width <= 0 {
		o.Width = 1000
	}
	if o.Height <= 0 {
		o.Height = 1000
	}
	if len(o.Ramp.Anchors) == 0 {
		o.Ramp = RampPlasma
	}
	if o.KeyTransform == nil {
		o.KeyTransform = func(k string) string { return k }
	}
}

var (
	white      = color.RGBA{0xff, 0xff, 0xff, 0xff}
	black      = color.RGBA{0x22, 0x22, 0x22, 0xff}
	background = color.RGBA{0xfa, 0xfa, 0xf8, 0xff}
)

const mapMargin = 60

// Choropleth renders one metric column onto the boundary set and writes
// the PNG to path. Boundary areas whose key resolves no metric value are
// filled with the no-data grey; metric keys that match no boundary are
// counted and logged, never silently lost.
func Choropleth(boundaries []model.GeoBoundary, values map[string]float64, opts MapOptions, path string) error {
	opts.defaults()
	if len(boundaries) == 0 {
		return eris.New("render: no boundaries to draw")
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	fillRect(img, 0, 0, opts.Width, opts.Height, background)

	proj := newProjector(boundaries, opts.Width, opts.Height, mapMargin)
	lo, hi := valueRange(values)

	matchedKeys := make(map[string]bool, len(values))
	var noData int
	for _, b := range boundaries {
		key := opts.KeyTransform(b.Key)
		v, ok := values[key]
		fill := NoDataFill
		if ok && !math.IsNaN(v) {
			matchedKeys[key] = true
			fill = opts.Ramp.At(normalize(v, lo, hi))
		} else {
			noData++
		}
		for _, rings := range projectRings(b.Geometry, proj) {
			fillRings(img, rings, fill)
			strokeRings(img, rings, white)
		}
	}

	// Metric keys that resolve to no boundary are a data defect worth
	// surfacing, per the exclusion policy.
	var orphaned []string
	for k, v := range values {
		if !matchedKeys[k] && !math.IsNaN(v) {
			orphaned = append(orphaned, k)
		}
	}
	if len(orphaned) > 0 {
		sort.Strings(orphaned)
		zap.L().Warn("metric keys with no boundary feature",
			zap.String("map", opts.Title),
			zap.Strings("keys", orphaned),
		)
	}

	drawTitle(img, opts)
	drawRampLegend(img, opts, lo, hi)

	if err := writePNG(img, path); err != nil {
		return err
	}
	zap.L().Info("choropleth rendered",
		zap.String("path", path),
		zap.Int("areas", len(boundaries)),
		zap.Int("no_data", noData),
	)
	return nil
}

// BivariateOptions configures a two-variable quantile map.
type BivariateOptions struct {
	MapOptions
	Quantiles      int // 2 or 3
	XLabel, YLabel string
}

// Bivariate renders a quantile cross-classification of two metric
// columns. Areas missing either variable take the no-data fill.
func Bivariate(boundaries []model.GeoBoundary, v1, v2 map[string]float64, opts BivariateOptions, path string) error {
	opts.defaults()
	if opts.Quantiles == 0 {
		opts.Quantiles = 3
	}
	palette, err := BivariatePalette(opts.Quantiles)
	if err != nil {
		return err
	}
	if len(boundaries) == 0 {
		return eris.New("render: no boundaries to draw")
	}

	// Classify per distinct key so quantiles are not weighted by how
	// many boundary features share a key.
	keys := make([]string, 0, len(v1))
	for k := range v1 {
		if _, ok := v2[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	x1 := make([]float64, len(keys))
	x2 := make([]float64, len(keys))
	for i, k := range keys {
		x1[i] = v1[k]
		x2[i] = v2[k]
	}
	c1 := QuantileClasses(x1, opts.Quantiles)
	c2 := QuantileClasses(x2, opts.Quantiles)

	classByKey := make(map[string]string, len(keys))
	for i, k := range keys {
		if c1[i] < 0 || c2[i] < 0 {
			continue
		}
		classByKey[k] = fmt.Sprintf("%d-%d", c1[i], c2[i])
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	fillRect(img, 0, 0, opts.Width, opts.Height, background)
	proj := newProjector(boundaries, opts.Width, opts.Height, mapMargin)

	var noData int
	for _, b := range boundaries {
		fill := NoDataFill
		if class, ok := classByKey[opts.KeyTransform(b.Key)]; ok {
			if c, ok := palette[class]; ok {
				fill = c
			}
		} else {
			noData++
		}
		for _, rings := range projectRings(b.Geometry, proj) {
			fillRings(img, rings, fill)
			strokeRings(img, rings, white)
		}
	}

	drawTitle(img, opts.MapOptions)
	drawBivariateLegend(img, opts, palette)

	if err := writePNG(img, path); err != nil {
		return err
	}
	zap.L().Info("bivariate map rendered",
		zap.String("path", path),
		zap.Int("areas", len(boundaries)),
		zap.Int("no_data", noData),
	)
	return nil
}

func drawTitle(img *image.RGBA, opts MapOptions) {
	if opts.Title != "" {
		drawTextCentered(img, opts.Title, opts.Width/2, 28, black)
	}
}

// drawRampLegend draws a horizontal ramp bar with min/max labels along
// the bottom edge.
func drawRampLegend(img *image.RGBA, opts MapOptions, lo, hi float64) {
	if math.IsInf(lo, 1) {
		return // no defined values at all
	}
	barW := opts.Width / 3
	barH := 14
	x0 := (opts.Width - barW) / 2
	y0 := opts.Height - 40

	for i := 0; i < barW; i++ {
		c := opts.Ramp.At(float64(i) / float64(barW-1))
		fillRect(img, x0+i, y0, x0+i+1, y0+barH, c)
	}
	strokeRect(img, x0, y0, x0+barW, y0+barH, black)

	drawText(img, trimFloat(lo), x0-textWidth(trimFloat(lo))-6, y0+barH-2, black)
	drawText(img, trimFloat(hi), x0+barW+6, y0+barH-2, black)
	if opts.Legend != "" {
		drawTextCentered(img, opts.Legend, opts.Width/2, y0-6, black)
	}
}

// drawBivariateLegend draws the n×n class swatch grid in the top-left
// corner with axis direction labels.
func drawBivariateLegend(img *image.RGBA, opts BivariateOptions, palette map[string]color.RGBA) {
	n := opts.Quantiles
	cell := 26
	x0, y0 := 30, 60

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c, ok := palette[fmt.Sprintf("%d-%d", i, j)]
			if !ok {
				continue
			}
			// class (0,0) sits bottom-left, matching the ramp direction
			cx := x0 + j*cell
			cy := y0 + (n-1-i)*cell
			fillRect(img, cx, cy, cx+cell-1, cy+cell-1, c)
		}
	}
	if opts.YLabel != "" {
		drawText(img, "high "+opts.YLabel+" >", x0+n*cell+8, y0+(n*cell)/2, black)
	}
	if opts.XLabel != "" {
		drawText(img, "high "+opts.XLabel+" >", x0, y0+n*cell+16, black)
	}
}

func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	drawLine(img, float64(x0), float64(y0), float64(x1), float64(y0), c)
	drawLine(img, float64(x0), float64(y1), float64(x1), float64(y1), c)
	drawLine(img, float64(x0), float64(y0), float64(x0), float64(y1), c)
	drawLine(img, float64(x1), float64(y0), float64(x1), float64(y1), c)
}

func valueRange(values map[string]float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0.5
	}
	return (v - lo) / (hi - lo)
}

func trimFloat(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

func writePNG(img *image.RGBA, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "render: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := png.Encode(f, img); err != nil {
		return eris.Wrapf(err, "render: encode %s", path)
	}
	return nil
}
