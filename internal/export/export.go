// Package export writes the final joined dataset to flat files. Export
// is an explicit terminal step; nothing in the pipeline reads these
// files back.
package export

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/citydatalab/airhealth/internal/model"
)

var header = []string{"geo", "level", "year", "no2", "o3", "discharge_count", "population", "rate_per_10k", "matched"}

// WriteCSV writes the metrics as CSV. Rows keep their input order, which
// the joiner already sorted, so identical runs produce identical files.
func WriteCSV(metrics []model.AggregatedMetric, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, m := range metrics {
		if err := w.Write(row(m)); err != nil {
			return eris.Wrapf(err, "export: write row %s/%d", m.Geo, m.Year)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "export: flush %s", path)
	}

	zap.L().Info("dataset exported", zap.String("path", path), zap.Int("rows", len(metrics)))
	return nil
}

// WriteXLSX writes the metrics as a single-sheet workbook.
func WriteXLSX(metrics []model.AggregatedMetric, path string) error {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("metrics")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	hr := sheet.AddRow()
	for _, col := range header {
		hr.AddCell().SetString(col)
	}
	for _, m := range metrics {
		r := sheet.AddRow()
		for _, cell := range row(m) {
			r.AddCell().SetString(cell)
		}
	}

	if err := wb.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	zap.L().Info("workbook exported", zap.String("path", path), zap.Int("rows", len(metrics)))
	return nil
}

func row(m model.AggregatedMetric) []string {
	return []string{
		m.Geo,
		string(m.Level),
		strconv.Itoa(m.Year),
		formatFloat(m.NO2),
		formatFloat(m.O3),
		formatFloat(m.DischargeCount),
		formatFloat(m.Population),
		formatFloat(m.RatePer10K),
		strconv.FormatBool(m.Matched),
	}
}

// formatFloat renders NaN as an empty cell.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
