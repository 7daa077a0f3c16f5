package pipeline

import (
	"math"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/citydatalab/airhealth/internal/analyze"
	"github.com/citydatalab/airhealth/internal/config"
	"github.com/citydatalab/airhealth/internal/join"
	"github.com/citydatalab/airhealth/internal/loader"
	"github.com/citydatalab/airhealth/internal/model"
	"github.com/citydatalab/airhealth/internal/render"
)

// RenderAll produces the chart and map artifacts for the joined metrics
// and returns the created file paths. Boundary inputs left unconfigured
// skip their maps; a configured boundary file that cannot be loaded is
// an error.
func RenderAll(metrics []model.AggregatedMetric, cfg *config.Config) ([]string, error) {
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "pipeline: create output dir %s", cfg.Output.Dir)
	}
	ramp, err := render.RampByName(cfg.Render.Ramp)
	if err != nil {
		return nil, err
	}

	var artifacts []string
	add := func(path string) { artifacts = append(artifacts, path) }
	out := func(name string) string { return filepath.Join(cfg.Output.Dir, name) }

	// Scatter charts straight off the joined table.
	series := analyze.Series(metrics)
	scatters := []struct {
		x, y, xl, yl, name string
	}{
		{"no2", "count", "NO2 (ppb)", "discharges", "scatter_no2_discharges.png"},
		{"o3", "count", "O3 (ppb)", "discharges", "scatter_o3_discharges.png"},
	}
	for _, s := range scatters {
		path := out(s.name)
		err := render.Scatter(series[s.x], series[s.y], render.ScatterOptions{
			Title:   s.xl + " vs. " + s.yl,
			XLabel:  s.xl,
			YLabel:  s.yl,
			FitLine: true,
		}, path)
		if err != nil {
			return nil, err
		}
		add(path)
	}

	// Borough maps.
	if cfg.Inputs.BoroughGeoJSON != "" {
		boundaries, err := loader.LoadBoundaries(cfg.Inputs.BoroughGeoJSON, loader.BoundaryOptions{
			KeyProperty: cfg.Inputs.BoroughKeyProp,
		})
		if err != nil {
			return nil, err
		}

		boroughs := join.RollupBorough(metrics)
		paths, err := renderLevelMaps(boundaries, boroughs, levelMapSpec{
			prefix:      "map_borough",
			countLabel:  "asthma rate per 10,000",
			countColumn: "rate",
			quantiles:   2, // five boroughs; finer classes are unstable
			ramp:        ramp,
			width:       cfg.Render.Width,
			height:      cfg.Render.Height,
			out:         out,
		})
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, paths...)
	}

	// ZIP3 maps, keyed by the first three digits of the ZCTA postal code.
	if cfg.Inputs.ZCTAGeoJSON != "" {
		boundaries, err := loader.LoadBoundaries(cfg.Inputs.ZCTAGeoJSON, loader.BoundaryOptions{
			KeyProperty:  cfg.Inputs.ZCTAKeyProp,
			KeyPrefixLen: 3,
		})
		if err != nil {
			return nil, err
		}

		zips := join.RollupZIP3(metrics)
		paths, err := renderLevelMaps(boundaries, zips, levelMapSpec{
			prefix:      "map_zip3",
			countLabel:  "total discharges",
			countColumn: "count",
			quantiles:   cfg.Render.Quantiles,
			ramp:        ramp,
			width:       cfg.Render.Width,
			height:      cfg.Render.Height,
			out:         out,
		})
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, paths...)
	}

	return artifacts, nil
}

type levelMapSpec struct {
	prefix      string
	countLabel  string
	countColumn string // "rate" or "count"
	quantiles   int
	ramp        render.Ramp
	width       int
	height      int
	out         func(string) string
}

// renderLevelMaps draws the three single-variable maps and the two
// bivariate maps for one rollup level.
func renderLevelMaps(boundaries []model.GeoBoundary, metrics []model.AggregatedMetric, spec levelMapSpec) ([]string, error) {
	outcome := collapse(metrics, spec.countColumn)
	no2 := collapse(metrics, "no2")
	o3 := collapse(metrics, "o3")

	var paths []string

	singles := []struct {
		values map[string]float64
		name   string
		title  string
		legend string
		ramp   render.Ramp
	}{
		{outcome, spec.prefix + "_discharges.png", "Asthma hospitalizations", spec.countLabel, render.RampReds},
		{no2, spec.prefix + "_no2.png", "Average NO2 levels", "average NO2 (ppb)", render.RampViridis},
		{o3, spec.prefix + "_o3.png", "Average O3 levels", "average O3 (ppb)", spec.ramp},
	}
	for _, s := range singles {
		path := spec.out(s.name)
		err := render.Choropleth(boundaries, s.values, render.MapOptions{
			Title:  s.title,
			Legend: s.legend,
			Width:  spec.width,
			Height: spec.height,
			Ramp:   s.ramp,
		}, path)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	bivariates := []struct {
		v2    map[string]float64
		name  string
		title string
		label string
	}{
		{no2, spec.prefix + "_bivariate_asthma_no2.png", "Asthma vs. NO2 levels", "NO2"},
		{o3, spec.prefix + "_bivariate_asthma_o3.png", "Asthma vs. O3 levels", "O3"},
	}
	for _, b := range bivariates {
		path := spec.out(b.name)
		err := render.Bivariate(boundaries, outcome, b.v2, render.BivariateOptions{
			MapOptions: render.MapOptions{
				Title:  b.title,
				Width:  spec.width,
				Height: spec.height,
			},
			Quantiles: spec.quantiles,
			XLabel:    "asthma",
			YLabel:    b.label,
		}, path)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// collapse flattens the year dimension into one value per geography:
// counts sum across years, everything else averages. NaN years are
// skipped; a geography with no defined year stays absent so the
// renderer applies its no-data treatment.
func collapse(metrics []model.AggregatedMetric, column string) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, m := range metrics {
		var v float64
		switch column {
		case "no2":
			v = m.NO2
		case "o3":
			v = m.O3
		case "count":
			v = m.DischargeCount
		case "rate":
			v = m.RatePer10K
		}
		if math.IsNaN(v) {
			continue
		}
		sums[m.Geo] += v
		counts[m.Geo]++
	}

	out := make(map[string]float64, len(sums))
	for geo, sum := range sums {
		if column == "count" {
			out[geo] = sum
			continue
		}
		out[geo] = sum / float64(counts[geo])
	}
	return out
}
