// Package loader reads the flat input files into typed records. Schema
// validation happens here: a missing file or an absent expected column is
// a fatal error, since nothing downstream can proceed without it.
package loader

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/citydatalab/airhealth/internal/model"
)

// airAliases maps observed air-quality header names onto the canonical
// csv tags of model.AirQualityRecord. The NYC export has shipped with
// several header spellings over the years.
var airAliases = map[string]string{
	"unique id":      "unique_id",
	"unique_id":      "unique_id",
	"indicator id":   "indicator_id",
	"indicator_id":   "indicator_id",
	"name":           "name",
	"measure":        "measure",
	"measure info":   "measure_info",
	"measure_info":   "measure_info",
	"geo type name":  "geo_type_name",
	"geo_type_name":  "geo_type_name",
	"geo join id":    "geo_join_id",
	"geo_join_id":    "geo_join_id",
	"geo place name": "geo_place_name",
	"geo_place_name": "geo_place_name",
	"time period":    "time_period",
	"time_period":    "time_period",
	"start_date":     "start_date",
	"start date":     "start_date",
	"data value":     "data_value",
	"data_value":     "data_value",
}

// airRequired are the canonical columns the cleaner cannot work without.
var airRequired = []string{"name", "geo_join_id", "time_period", "data_value"}

// dischargeAliases maps SPARCS header names onto model.DischargeRecord
// tags. The export keys geography by a three-digit ZIP prefix; UHF-keyed
// derivatives use the uhf42 column instead.
var dischargeAliases = map[string]string{
	"year":                      "year",
	"discharge year":            "year",
	"zip code - 3 digits":       "geo_id",
	"zip code 3 digits":         "geo_id",
	"zip3":                      "geo_id",
	"uhf42":                     "geo_id",
	"geo id":                    "geo_id",
	"geo_id":                    "geo_id",
	"ccs diagnosis description": "diagnosis",
	"diagnosis":                 "diagnosis",
	"condition":                 "diagnosis",
	"discharges":                "discharges",
	"discharge count":           "discharges",
	"total discharges":          "discharges",
	"population":                "population",
}

var dischargeRequired = []string{"year", "geo_id", "diagnosis", "discharges"}

// LoadAirQualityCSV reads the NYC air-quality export.
func LoadAirQualityCSV(path string) ([]model.AirQualityRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open air-quality file %s", path)
	}
	defer f.Close() //nolint:errcheck

	var records []model.AirQualityRecord
	if err := decodeCSV(f, airAliases, airRequired, func(dec *csvutil.Decoder) error {
		var rec model.AirQualityRecord
		if err := dec.Decode(&rec); err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	}); err != nil {
		return nil, eris.Wrapf(err, "loader: parse air-quality file %s", path)
	}

	zap.L().Info("air-quality file loaded", zap.String("path", path), zap.Int("rows", len(records)))
	return records, nil
}

// LoadDischargeCSV reads the SPARCS inpatient-discharge export.
func LoadDischargeCSV(path string) ([]model.DischargeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open discharge file %s", path)
	}
	defer f.Close() //nolint:errcheck

	var records []model.DischargeRecord
	if err := decodeCSV(f, dischargeAliases, dischargeRequired, func(dec *csvutil.Decoder) error {
		var rec model.DischargeRecord
		if err := dec.Decode(&rec); err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	}); err != nil {
		return nil, eris.Wrapf(err, "loader: parse discharge file %s", path)
	}

	zap.L().Info("discharge file loaded", zap.String("path", path), zap.Int("rows", len(records)))
	return records, nil
}

// decodeCSV reads the header, resolves it through the alias table, checks
// the required canonical columns are all present, and decodes the
// remaining rows through the callback.
func decodeCSV(r io.Reader, aliases map[string]string, required []string, decode func(*csvutil.Decoder) error) error {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rawHeader, err := reader.Read()
	if err == io.EOF {
		return eris.New("loader: file is empty")
	}
	if err != nil {
		return eris.Wrap(err, "loader: read header")
	}

	header, err := canonicalHeader(rawHeader, aliases, required)
	if err != nil {
		return err
	}

	dec, err := csvutil.NewDecoder(reader, header...)
	if err != nil {
		return eris.Wrap(err, "loader: build decoder")
	}

	for {
		err := decode(dec)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "loader: decode row")
		}
	}
}

// canonicalHeader maps raw header names through the alias table.
// Unrecognized columns keep a synthetic ignored name; missing required
// columns are a schema error.
func canonicalHeader(raw []string, aliases map[string]string, required []string) ([]string, error) {
	header := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, col := range raw {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if canonical, ok := aliases[key]; ok && !seen[canonical] {
			header[i] = canonical
			seen[canonical] = true
			continue
		}
		header[i] = "-ignored-" + key
	}

	var missing []string
	for _, col := range required {
		if !seen[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("loader: required columns absent from header: %s", strings.Join(missing, ", "))
	}
	return header, nil
}
