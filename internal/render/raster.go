package render

import (
	"image"
	"image/color"
	"math"
	"sort"
)

// fillRings rasterizes one polygon (exterior plus holes) with the
// even-odd rule, one scanline at a time.
func fillRings(img *image.RGBA, rings []ring, fill color.RGBA) {
	if len(rings) == 0 {
		return
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, r := range rings {
		for _, pt := range r {
			minY = math.Min(minY, pt[1])
			maxY = math.Max(maxY, pt[1])
		}
	}

	bounds := img.Bounds()
	y0 := int(math.Max(math.Floor(minY), float64(bounds.Min.Y)))
	y1 := int(math.Min(math.Ceil(maxY), float64(bounds.Max.Y-1)))

	for y := y0; y <= y1; y++ {
		scan := float64(y) + 0.5

		var xs []float64
		for _, r := range rings {
			for i := 0; i < len(r); i++ {
				a := r[i]
				b := r[(i+1)%len(r)]
				if (a[1] <= scan) == (b[1] <= scan) {
					continue
				}
				t := (scan - a[1]) / (b[1] - a[1])
				xs = append(xs, a[0]+t*(b[0]-a[0]))
			}
		}
		if len(xs) < 2 {
			continue
		}
		sort.Float64s(xs)

		for i := 0; i+1 < len(xs); i += 2 {
			x0 := int(math.Max(math.Ceil(xs[i]-0.5), float64(bounds.Min.X)))
			x1 := int(math.Min(math.Floor(xs[i+1]-0.5), float64(bounds.Max.X-1)))
			for x := x0; x <= x1; x++ {
				img.SetRGBA(x, y, fill)
			}
		}
	}
}

// strokeRings draws ring outlines with 1px lines.
func strokeRings(img *image.RGBA, rings []ring, stroke color.RGBA) {
	for _, r := range rings {
		for i := 0; i < len(r); i++ {
			a := r[i]
			b := r[(i+1)%len(r)]
			drawLine(img, a[0], a[1], b[0], b[1], stroke)
		}
	}
}

// drawLine draws a 1px line by stepping the major axis.
func drawLine(img *image.RGBA, x0, y0, x1, y1 float64, c color.RGBA) {
	dx := x1 - x0
	dy := y1 - y0
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		setPixel(img, int(x0), int(y0), c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		setPixel(img, int(x0+t*dx), int(y0+t*dy), c)
	}
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// fillRect fills an axis-aligned rectangle, clipped to the image.
func fillRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			setPixel(img, x, y, c)
		}
	}
}
