package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citydatalab/airhealth/internal/config"
)

const airFixture = `Name,Geo Type Name,Geo Join ID,Time Period,Data Value
Nitrogen dioxide (NO2),UHF42,101,Annual Average 2014,28.1
Nitrogen dioxide (NO2),UHF42,102,Annual Average 2014,24.3
Nitrogen dioxide (NO2),UHF42,305,Annual Average 2014,30.5
Nitrogen dioxide (NO2),UHF42,306,Annual Average 2014,22.0
Ozone (O3),UHF42,101,Summer 2014,29.0
Ozone (O3),UHF42,102,Summer 2014,31.5
Ozone (O3),UHF42,305,Summer 2014,27.2
Ozone (O3),UHF42,306,Summer 2014,33.0
Fine particles (PM 2.5),UHF42,101,Annual Average 2014,8.2
`

const dischargeFixture = `year,uhf42,diagnosis,discharges,population
2014,101,Asthma,210,120000
2014,102,Asthma,95,80000
2014,305,Asthma,180,95000
2014,306,Asthma,60,70000
2014,101,Pneumonia,400,120000
`

const boroughFixture = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "Bronx"},
      "geometry": {"type": "Polygon", "coordinates": [[[-73.93, 40.79], [-73.76, 40.79], [-73.76, 40.92], [-73.93, 40.92], [-73.93, 40.79]]]}
    },
    {
      "type": "Feature",
      "properties": {"name": "Manhattan"},
      "geometry": {"type": "Polygon", "coordinates": [[[-74.02, 40.68], [-73.93, 40.68], [-73.93, 40.88], [-74.02, 40.88], [-74.02, 40.68]]]}
    }
  ]
}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	return &config.Config{
		Inputs: config.Inputs{
			AirQuality:     write("air.csv", airFixture),
			Discharges:     write("sparcs.csv", dischargeFixture),
			BoroughGeoJSON: write("boroughs.geojson", boroughFixture),
			BoroughKeyProp: "name",
		},
		Clean: config.Clean{
			Pollutants: []string{"NO2", "O3"},
			Diagnosis:  "asthma",
			Level:      "uhf42",
		},
		Join: config.Join{
			Type:         "inner",
			PollutantAgg: "mean",
			DischargeAgg: "sum",
		},
		Render: config.Render{
			Width:     200,
			Height:    200,
			Quantiles: 2,
			Ramp:      "plasma",
		},
		Output: config.Output{
			Dir: filepath.Join(dir, "output"),
			CSV: true,
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)

	result, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 9, result.AirRows)
	assert.Equal(t, 5, result.DischargeRows)
	assert.Equal(t, 8, result.AirKept, "PM 2.5 row filtered")
	assert.Equal(t, 4, result.DischargeKept, "pneumonia row filtered")
	assert.Equal(t, 4, result.JoinedRows)

	// Pearson and Spearman over the four fixed pairs.
	require.Len(t, result.Correlations, 8)
	for _, c := range result.Correlations {
		assert.True(t, c.Defined, "%s vs %s (%s)", c.X, c.Y, c.Method)
		assert.Equal(t, 4, c.N)
	}

	// Scatter charts plus borough maps; no ZCTA input, so no ZIP3 maps.
	assert.NotEmpty(t, result.Artifacts)
	for _, path := range result.Artifacts {
		assert.FileExists(t, path)
	}

	require.NotEmpty(t, result.DatasetCSV)
	assert.FileExists(t, result.DatasetCSV)
	assert.Empty(t, result.DatasetXLSX)
	assert.Empty(t, result.StoredRunID, "no store configured")
}

func TestRunRecordsToStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Path = filepath.Join(t.TempDir(), "runs.db")

	result, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, result.StoredRunID)
	assert.FileExists(t, cfg.Store.Path)
}

func TestRunMissingInputFileFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Inputs.AirQuality = filepath.Join(t.TempDir(), "missing.csv")

	_, err := Run(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRunNoDischargeInputConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.Inputs.Discharges = ""
	cfg.Inputs.DischargesXLSX = ""

	_, err := Run(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRunDisjointKeysProduceNoRows(t *testing.T) {
	cfg := testConfig(t)
	// Discharges for districts the air dataset never mentions.
	require.NoError(t, os.WriteFile(cfg.Inputs.Discharges, []byte(
		"year,uhf42,diagnosis,discharges\n2014,501,Asthma,10\n",
	), 0o644))

	_, err := Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rows")
}

func TestDatasetLeftJoinKeepsPollutantSide(t *testing.T) {
	cfg := testConfig(t)
	cfg.Join.Type = "left"
	require.NoError(t, os.WriteFile(cfg.Inputs.Discharges, []byte(
		"year,uhf42,diagnosis,discharges,population\n2014,101,Asthma,210,120000\n",
	), 0o644))

	metrics, counts, err := Dataset(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.DischargeKept)
	require.Len(t, metrics, 4, "every pollutant-side key survives a left join")

	matched := 0
	for _, m := range metrics {
		if m.Matched {
			matched++
		}
	}
	assert.Equal(t, 1, matched)
}

func TestRenderAllWithoutBoundaries(t *testing.T) {
	cfg := testConfig(t)
	cfg.Inputs.BoroughGeoJSON = ""

	metrics, _, err := Dataset(cfg)
	require.NoError(t, err)

	artifacts, err := RenderAll(metrics, cfg)
	require.NoError(t, err)
	require.Len(t, artifacts, 2, "only the scatter charts remain")
	for _, path := range artifacts {
		assert.FileExists(t, path)
	}
}
