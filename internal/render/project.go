package render

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/citydatalab/airhealth/internal/model"
)

// projector maps lon/lat coordinates onto canvas pixels: uniform scale,
// centered fit, y axis flipped.
type projector struct {
	minX, minY float64
	scale      float64
	offX, offY float64
	height     int
}

// newProjector fits the union bounds of all boundary geometries into a
// width×height canvas with the given margin.
func newProjector(boundaries []model.GeoBoundary, width, height, margin int) projector {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range boundaries {
		bounds := b.Geometry.Bounds()
		minX = math.Min(minX, bounds.Min(0))
		minY = math.Min(minY, bounds.Min(1))
		maxX = math.Max(maxX, bounds.Max(0))
		maxY = math.Max(maxY, bounds.Max(1))
	}

	spanX := maxX - minX
	spanY := maxY - minY
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}

	usableW := float64(width - 2*margin)
	usableH := float64(height - 2*margin)
	scale := math.Min(usableW/spanX, usableH/spanY)

	return projector{
		minX:   minX,
		minY:   minY,
		scale:  scale,
		offX:   float64(margin) + (usableW-spanX*scale)/2,
		offY:   float64(margin) + (usableH-spanY*scale)/2,
		height: height,
	}
}

func (p projector) point(lon, lat float64) (float64, float64) {
	x := p.offX + (lon-p.minX)*p.scale
	y := float64(p.height) - (p.offY + (lat-p.minY)*p.scale)
	return x, y
}

// ring is a projected closed ring in pixel space.
type ring [][2]float64

// projectRings flattens a Polygon or MultiPolygon into projected rings
// grouped per polygon, holes included so even-odd filling works.
func projectRings(g geom.T, p projector) [][]ring {
	switch t := g.(type) {
	case *geom.Polygon:
		return [][]ring{projectPolygon(t, p)}
	case *geom.MultiPolygon:
		out := make([][]ring, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			out = append(out, projectPolygon(t.Polygon(i), p))
		}
		return out
	default:
		return nil
	}
}

func projectPolygon(poly *geom.Polygon, p projector) []ring {
	rings := make([]ring, 0, poly.NumLinearRings())
	for i := 0; i < poly.NumLinearRings(); i++ {
		lr := poly.LinearRing(i)
		coords := lr.Coords()
		r := make(ring, 0, len(coords))
		for _, c := range coords {
			x, y := p.point(c[0], c[1])
			r = append(r, [2]float64{x, y})
		}
		if len(r) >= 3 {
			rings = append(rings, r)
		}
	}
	return rings
}
