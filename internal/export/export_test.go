package export

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/citydatalab/airhealth/internal/model"
)

func fixtureMetrics() []model.AggregatedMetric {
	return []model.AggregatedMetric{
		{
			Geo: "305", Level: model.LevelUHF42, Year: 2014,
			NO2: 26.5, O3: 31.2, DischargeCount: 120, Population: 60000,
			RatePer10K: 20, Matched: true,
		},
		{
			Geo: "306", Level: model.LevelUHF42, Year: 2014,
			NO2: 22.1, O3: 29.8,
			DischargeCount: math.NaN(), RatePer10K: math.NaN(), Matched: false,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final_dataset.csv")
	require.NoError(t, WriteCSV(fixtureMetrics(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"geo", "level", "year", "no2", "o3", "discharge_count", "population", "rate_per_10k", "matched"}, rows[0])
	assert.Equal(t, []string{"305", "uhf42", "2014", "26.5", "31.2", "120", "60000", "20", "true"}, rows[1])

	unmatched := rows[2]
	assert.Equal(t, "306", unmatched[0])
	assert.Empty(t, unmatched[5], "NaN count exports as an empty cell")
	assert.Empty(t, unmatched[7], "NaN rate exports as an empty cell")
	assert.Equal(t, "false", unmatched[8])
}

func TestWriteCSVDeterministic(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.csv")
	p2 := filepath.Join(dir, "b.csv")
	require.NoError(t, WriteCSV(fixtureMetrics(), p1))
	require.NoError(t, WriteCSV(fixtureMetrics(), p2))

	b1, err := os.ReadFile(p1)
	require.NoError(t, err)
	b2, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestWriteCSVBadPath(t *testing.T) {
	err := WriteCSV(fixtureMetrics(), filepath.Join(t.TempDir(), "missing", "out.csv"))
	assert.Error(t, err)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final_dataset.xlsx")
	require.NoError(t, WriteXLSX(fixtureMetrics(), path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "geo", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "305", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "26.5", sheet.Rows[1].Cells[3].String())
	assert.Equal(t, "", sheet.Rows[2].Cells[5].String())
}
