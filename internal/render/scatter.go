package render

import (
	"image"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// ScatterOptions configures a scatter chart.
type ScatterOptions struct {
	Title          string
	XLabel, YLabel string
	Width, Height  int
	FitLine        bool
}

const (
	scatterMargin = 70
	tickCount     = 5
)

// Scatter renders an x/y scatter of two equal-length series with axes,
// ticks, and an optional least-squares fit line. NaN pairs are skipped.
func Scatter(xs, ys []float64, opts ScatterOptions, path string) error {
	if len(xs) != len(ys) {
		return eris.Errorf("render: scatter series length mismatch (%d vs %d)", len(xs), len(ys))
	}
	if opts.Width <= 0 {
		opts.Width = 900
	}
	if opts.Height <= 0 {
		opts.Height = 700
	}

	var px, py []float64
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		px = append(px, xs[i])
		py = append(py, ys[i])
	}
	if len(px) == 0 {
		return eris.New("render: scatter has no drawable points")
	}

	xLo, xHi := seriesRange(px)
	yLo, yHi := seriesRange(py)

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	fillRect(img, 0, 0, opts.Width, opts.Height, background)

	plotW := opts.Width - 2*scatterMargin
	plotH := opts.Height - 2*scatterMargin
	toX := func(v float64) float64 {
		return float64(scatterMargin) + normalize(v, xLo, xHi)*float64(plotW)
	}
	toY := func(v float64) float64 {
		return float64(opts.Height-scatterMargin) - normalize(v, yLo, yHi)*float64(plotH)
	}

	drawAxes(img, opts, xLo, xHi, yLo, yHi)

	pointColor := RampPlasma.Anchors[1]
	for i := range px {
		cx, cy := toX(px[i]), toY(py[i])
		fillRect(img, int(cx)-2, int(cy)-2, int(cx)+3, int(cy)+3, pointColor)
	}

	if opts.FitLine && len(px) >= 2 && xHi > xLo {
		alpha, beta := stat.LinearRegression(px, py, nil, false)
		drawLine(img, toX(xLo), toY(alpha+beta*xLo), toX(xHi), toY(alpha+beta*xHi), black)
	}

	if opts.Title != "" {
		drawTextCentered(img, opts.Title, opts.Width/2, 28, black)
	}

	if err := writePNG(img, path); err != nil {
		return err
	}
	zap.L().Info("scatter rendered", zap.String("path", path), zap.Int("points", len(px)))
	return nil
}

func drawAxes(img *image.RGBA, opts ScatterOptions, xLo, xHi, yLo, yHi float64) {
	left := scatterMargin
	bottom := opts.Height - scatterMargin
	right := opts.Width - scatterMargin
	top := scatterMargin

	drawLine(img, float64(left), float64(bottom), float64(right), float64(bottom), black)
	drawLine(img, float64(left), float64(bottom), float64(left), float64(top), black)

	for i := 0; i <= tickCount; i++ {
		f := float64(i) / float64(tickCount)

		x := left + int(f*float64(right-left))
		drawLine(img, float64(x), float64(bottom), float64(x), float64(bottom+5), black)
		drawTextCentered(img, trimFloat(xLo+f*(xHi-xLo)), x, bottom+20, black)

		y := bottom - int(f*float64(bottom-top))
		drawLine(img, float64(left-5), float64(y), float64(left), float64(y), black)
		label := trimFloat(yLo + f*(yHi-yLo))
		drawText(img, label, left-textWidth(label)-8, y+4, black)
	}

	if opts.XLabel != "" {
		drawTextCentered(img, opts.XLabel, (left+right)/2, bottom+40, black)
	}
	if opts.YLabel != "" {
		drawText(img, opts.YLabel, left-40, top-12, black)
	}
}

func seriesRange(vs []float64) (float64, float64) {
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	return lo, hi
}
