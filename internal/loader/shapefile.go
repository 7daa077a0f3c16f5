package loader

import (
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/citydatalab/airhealth/internal/model"
)

// LoadBoundariesShapefile reads an ESRI shapefile into boundary records,
// keyed by the named attribute field. Only polygon shapes are kept.
func LoadBoundariesShapefile(path string, opts BoundaryOptions) ([]model.GeoBoundary, error) {
	if opts.KeyProperty == "" {
		return nil, eris.New("loader: boundary key field is required")
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	keyIdx := fieldIndex(reader, opts.KeyProperty)
	if keyIdx < 0 {
		return nil, eris.Errorf("loader: shapefile %s has no field %q", path, opts.KeyProperty)
	}
	nameIdx := keyIdx
	if opts.NameProperty != "" {
		if i := fieldIndex(reader, opts.NameProperty); i >= 0 {
			nameIdx = i
		}
	}

	log := zap.L().With(zap.String("component", "loader.shapefile"), zap.String("path", path))

	var boundaries []model.GeoBoundary
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}

		key := strings.TrimSpace(reader.Attribute(keyIdx))
		if key == "" {
			skipped++
			continue
		}
		if opts.KeyPrefixLen > 0 && len(key) > opts.KeyPrefixLen {
			key = key[:opts.KeyPrefixLen]
		}

		g := polygonToMultiPolygon(poly)
		if g == nil {
			skipped++
			continue
		}

		boundaries = append(boundaries, model.GeoBoundary{
			Key:      key,
			Name:     strings.TrimSpace(reader.Attribute(nameIdx)),
			Geometry: g,
		})
	}

	if len(boundaries) == 0 {
		return nil, eris.Errorf("loader: shapefile %s yielded no usable features", path)
	}

	log.Info("shapefile loaded", zap.Int("features", len(boundaries)), zap.Int("skipped", skipped))
	return boundaries, nil
}

// fieldIndex returns the index of a named field, or -1 if not found.
// Shapefile field names are fixed-width and NUL padded.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Each part becomes a single-ring polygon; malformed parts are skipped.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("loader: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("loader: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
