package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBoundariesDispatchesOnExtension(t *testing.T) {
	// GeoJSON goes through the JSON parser regardless of casing.
	path := writeFile(t, "areas.GeoJSON", `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "a"},
      "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 1], [0, 0]]]}
    }
  ]
}`)
	boundaries, err := LoadBoundaries(path, BoundaryOptions{KeyProperty: "name"})
	require.NoError(t, err)
	assert.Len(t, boundaries, 1)
}

func TestLoadBoundariesShapefileMissingFile(t *testing.T) {
	_, err := LoadBoundaries(filepath.Join(t.TempDir(), "nope.shp"), BoundaryOptions{KeyProperty: "NAME"})
	assert.Error(t, err)
}

func TestLoadBoundariesShapefileRequiresKeyField(t *testing.T) {
	_, err := LoadBoundariesShapefile("irrelevant.shp", BoundaryOptions{})
	assert.Error(t, err)
}
