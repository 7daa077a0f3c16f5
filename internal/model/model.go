// Package model defines the typed records flowing through the analysis
// pipeline: raw dataset rows, cleaned observations, boundary geometries,
// and the joined per-area metrics.
package model

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Pollutant identifies an air-quality indicator retained by the cleaner.
type Pollutant string

const (
	PollutantNO2 Pollutant = "NO2"
	PollutantO3  Pollutant = "O3"
)

// GeoLevel names a geographic granularity used as a join or map key.
type GeoLevel string

const (
	LevelUHF42   GeoLevel = "uhf42"
	LevelZIP3    GeoLevel = "zip3"
	LevelBorough GeoLevel = "borough"
)

// AirQualityRecord is one row of the NYC air-quality export, as loaded.
// Field values are raw; the cleaner owns all interpretation.
type AirQualityRecord struct {
	UniqueID    string  `csv:"unique_id"`
	IndicatorID string  `csv:"indicator_id"`
	Name        string  `csv:"name"`
	Measure     string  `csv:"measure"`
	MeasureInfo string  `csv:"measure_info"`
	GeoTypeName string  `csv:"geo_type_name"`
	GeoJoinID   string  `csv:"geo_join_id"`
	GeoPlace    string  `csv:"geo_place_name"`
	TimePeriod  string  `csv:"time_period"`
	StartDate   string  `csv:"start_date"`
	DataValue   *string `csv:"data_value"`
}

// DischargeRecord is one row of the SPARCS inpatient-discharge export.
// GeoID may be a three-digit ZIP prefix or a UHF42 code depending on the
// export; Population is optional and zero when the export lacks it.
type DischargeRecord struct {
	Year       string  `csv:"year"`
	GeoID      string  `csv:"geo_id"`
	Diagnosis  string  `csv:"diagnosis"`
	Discharges *string `csv:"discharges"`
	Population *string `csv:"population"`
}

// GeoBoundary is one feature of a boundary file: an area key and its
// polygon or multipolygon geometry in WGS84.
type GeoBoundary struct {
	Key      string
	Name     string
	Geometry geom.T
}

// Observation is a cleaned, normalized measurement: one value for one
// geographic area in one calendar year.
type Observation struct {
	Geo        string
	Level      GeoLevel
	Year       int
	Pollutant  Pollutant // empty for discharge observations
	Value      float64   // concentration, or discharge count
	Population float64   // discharge observations only; 0 when unknown
}

// AggregatedMetric is one joined row: pollutant means and discharge sums
// for a (geography, year) key. Produced by the joiner, consumed by the
// analyzer and renderer, and discarded at process end unless exported.
type AggregatedMetric struct {
	Geo            string   `json:"geo"`
	Level          GeoLevel `json:"level"`
	Year           int      `json:"year"`
	NO2            float64  `json:"no2"`
	O3             float64  `json:"o3"`
	DischargeCount float64  `json:"discharge_count"`
	Population     float64  `json:"population"`
	RatePer10K     float64  `json:"rate_per_10k"` // NaN when population is unknown
	Matched        bool     `json:"matched"`      // false on the unmatched side of a left join
}

// Rate returns discharges per 10,000 residents, or NaN when the
// population denominator is missing or zero.
func Rate(count, population float64) float64 {
	if population <= 0 {
		return math.NaN()
	}
	return count / population * 10000
}
