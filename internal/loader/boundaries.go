package loader

import (
	"path/filepath"
	"strings"

	"github.com/citydatalab/airhealth/internal/model"
)

// LoadBoundaries dispatches on the file extension: .shp opens an ESRI
// shapefile, anything else is treated as GeoJSON.
func LoadBoundaries(path string, opts BoundaryOptions) ([]model.GeoBoundary, error) {
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return LoadBoundariesShapefile(path, opts)
	}
	return LoadBoundariesGeoJSON(path, opts)
}
