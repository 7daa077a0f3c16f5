package loader

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/citydatalab/airhealth/internal/model"
)

// LoadDischargeXLSX reads a SPARCS discharge export in workbook form.
// The first sheet is used and its first row must be the header.
func LoadDischargeXLSX(path string) ([]model.DischargeRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open discharge workbook %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("loader: workbook %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("loader: workbook %s sheet is empty", path)
	}

	header, err := canonicalHeader(rowToStrings(sheet.Rows[0]), dischargeAliases, dischargeRequired)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: workbook %s", path)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}

	var records []model.DischargeRecord
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if blankRow(cells) {
			continue
		}
		rec := model.DischargeRecord{
			Year:      cellAt(cells, index, "year"),
			GeoID:     cellAt(cells, index, "geo_id"),
			Diagnosis: cellAt(cells, index, "diagnosis"),
		}
		if v := cellAt(cells, index, "discharges"); v != "" {
			rec.Discharges = &v
		}
		if v := cellAt(cells, index, "population"); v != "" {
			rec.Population = &v
		}
		records = append(records, rec)
	}

	zap.L().Info("discharge workbook loaded", zap.String("path", path), zap.Int("rows", len(records)))
	return records, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = c.String()
	}
	return cells
}

func cellAt(cells []string, index map[string]int, col string) string {
	i, ok := index[col]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
