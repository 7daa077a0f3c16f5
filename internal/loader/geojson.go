package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	geomjson "github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/citydatalab/airhealth/internal/model"
)

// BoundaryOptions selects which feature property supplies the area key
// and, optionally, a display name.
type BoundaryOptions struct {
	KeyProperty  string // required, e.g. "name" or "postalCode"
	NameProperty string // optional; falls back to KeyProperty
	// KeyPrefixLen truncates the key to its first N characters, used to
	// collapse ZCTA postal codes into ZIP3 areas. 0 keeps the full key.
	KeyPrefixLen int
}

// LoadBoundariesGeoJSON reads a GeoJSON FeatureCollection into boundary
// records. Features without the key property or with non-areal geometry
// are skipped with a warning; an empty result is an error because no map
// can be rendered from it.
func LoadBoundariesGeoJSON(path string, opts BoundaryOptions) ([]model.GeoBoundary, error) {
	if opts.KeyProperty == "" {
		return nil, eris.New("loader: boundary key property is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open boundary file %s", path)
	}

	var fc geomjson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "loader: parse boundary file %s", path)
	}

	log := zap.L().With(zap.String("component", "loader.geojson"), zap.String("path", path))

	var boundaries []model.GeoBoundary
	var skipped int
	for _, feature := range fc.Features {
		key := propertyString(feature.Properties, opts.KeyProperty)
		if key == "" {
			skipped++
			continue
		}
		if opts.KeyPrefixLen > 0 && len(key) > opts.KeyPrefixLen {
			key = key[:opts.KeyPrefixLen]
		}

		if !arealGeometry(feature.Geometry) {
			log.Warn("skipping non-areal feature", zap.String("key", key))
			skipped++
			continue
		}

		name := propertyString(feature.Properties, opts.NameProperty)
		if name == "" {
			name = key
		}

		boundaries = append(boundaries, model.GeoBoundary{
			Key:      key,
			Name:     name,
			Geometry: feature.Geometry,
		})
	}

	if len(boundaries) == 0 {
		return nil, eris.Errorf("loader: boundary file %s yielded no usable features", path)
	}

	log.Info("boundary file loaded", zap.Int("features", len(boundaries)), zap.Int("skipped", skipped))
	return boundaries, nil
}

func arealGeometry(g geom.T) bool {
	switch g.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
		return true
	default:
		return false
	}
}

func propertyString(props map[string]any, key string) string {
	if key == "" {
		return ""
	}
	v, ok := props[key]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}
