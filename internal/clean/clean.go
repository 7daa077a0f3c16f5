// Package clean normalizes heterogeneous dataset rows onto the shared
// (geography, year) schema the joiner operates on. Rows missing a
// required field are dropped, never imputed.
package clean

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/citydatalab/airhealth/internal/model"
)

// Policy fixes the cleaning decisions for a run: which pollutants to
// retain, which diagnosis category to keep, and the target geography.
type Policy struct {
	Pollutants []model.Pollutant
	Diagnosis  string // substring match, case-insensitive; empty keeps all
	Level      model.GeoLevel
}

// DefaultPolicy mirrors the published analysis: NO2 and O3 against
// asthma discharges at UHF42 granularity.
func DefaultPolicy() Policy {
	return Policy{
		Pollutants: []model.Pollutant{model.PollutantNO2, model.PollutantO3},
		Diagnosis:  "asthma",
		Level:      model.LevelUHF42,
	}
}

// DropStats counts rows excluded during normalization, by reason.
type DropStats struct {
	Filtered   int // wrong pollutant, geography type, or diagnosis
	BadGeo     int
	BadPeriod  int
	BadValue   int
	Suppressed int
	KeptRows   int
}

var yearRe = regexp.MustCompile(`(19|20)\d{2}`)

// ParsePeriod extracts the calendar year from an air-quality time-period
// label ("Annual Average 2014", "Winter 2014-15", "2014"). The first
// four-digit year wins. Returns 0 when no year is present.
func ParsePeriod(label string) int {
	m := yearRe.FindString(label)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

// ParseCount parses a numeric cell that may carry thousands separators
// ("10,482"). Suppression markers ("*", "s", "-") and empty cells return
// ok=false.
func ParseCount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "*", "s", "S", "-", "NA", "N/A":
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v < 0 {
		return 0, false
	}
	return v, true
}

// pollutantForName maps the export's indicator name onto a retained
// pollutant. Matching is by the parenthesized code ("Nitrogen dioxide
// (NO2)"), falling back to a bare-code comparison.
func pollutantForName(name string, retained []model.Pollutant) (model.Pollutant, bool) {
	upper := strings.ToUpper(name)
	for _, p := range retained {
		if strings.Contains(upper, "("+string(p)+")") || upper == string(p) {
			return p, true
		}
	}
	return "", false
}

// NormalizeAirQuality converts raw air-quality rows into UHF42-keyed
// observations for the retained pollutants. Non-UHF geography types,
// unparseable periods, and missing values are dropped and counted.
func NormalizeAirQuality(records []model.AirQualityRecord, policy Policy) ([]model.Observation, DropStats) {
	log := zap.L().With(zap.String("component", "clean.airquality"))
	var obs []model.Observation
	var stats DropStats

	for _, rec := range records {
		pollutant, ok := pollutantForName(rec.Name, policy.Pollutants)
		if !ok {
			stats.Filtered++
			continue
		}
		if gt := strings.ToUpper(strings.TrimSpace(rec.GeoTypeName)); gt != "" && !strings.HasPrefix(gt, "UHF") {
			stats.Filtered++
			continue
		}

		uhf := ParseUHF(rec.GeoJoinID)
		if uhf == 0 {
			stats.BadGeo++
			continue
		}

		year := ParsePeriod(rec.TimePeriod)
		if year == 0 {
			year = ParsePeriod(rec.StartDate)
		}
		if year == 0 {
			stats.BadPeriod++
			continue
		}

		if rec.DataValue == nil {
			stats.BadValue++
			continue
		}
		value, ok := ParseCount(*rec.DataValue)
		if !ok {
			stats.BadValue++
			continue
		}

		obs = append(obs, model.Observation{
			Geo:       strconv.Itoa(uhf),
			Level:     model.LevelUHF42,
			Year:      year,
			Pollutant: pollutant,
			Value:     value,
		})
	}

	stats.KeptRows = len(obs)
	log.Info("air-quality rows normalized",
		zap.Int("input", len(records)),
		zap.Int("kept", stats.KeptRows),
		zap.Int("filtered", stats.Filtered),
		zap.Int("bad_geo", stats.BadGeo),
		zap.Int("bad_period", stats.BadPeriod),
		zap.Int("bad_value", stats.BadValue),
	)
	return obs, stats
}

// NormalizeDischarges converts raw discharge rows into UHF42-keyed count
// observations. ZIP3-keyed exports are assigned to every UHF district the
// prefix covers, matching the source methodology; UHF-keyed exports pass
// through. Suppressed counts drop the row.
func NormalizeDischarges(records []model.DischargeRecord, policy Policy) ([]model.Observation, DropStats) {
	log := zap.L().With(zap.String("component", "clean.discharges"))
	var obs []model.Observation
	var stats DropStats

	diagnosis := strings.ToLower(strings.TrimSpace(policy.Diagnosis))

	for _, rec := range records {
		if diagnosis != "" && !strings.Contains(strings.ToLower(rec.Diagnosis), diagnosis) {
			stats.Filtered++
			continue
		}

		year := ParsePeriod(rec.Year)
		if year == 0 {
			stats.BadPeriod++
			continue
		}

		if rec.Discharges == nil {
			stats.BadValue++
			continue
		}
		count, ok := ParseCount(*rec.Discharges)
		if !ok {
			stats.Suppressed++
			continue
		}

		var population float64
		if rec.Population != nil {
			if p, ok := ParseCount(*rec.Population); ok {
				population = p
			}
		}

		// UHF-keyed rows pass through; anything else is treated as a
		// postal identifier and spread across its UHF districts.
		if uhf := ParseUHF(rec.GeoID); uhf != 0 {
			obs = append(obs, model.Observation{
				Geo:        strconv.Itoa(uhf),
				Level:      model.LevelUHF42,
				Year:       year,
				Value:      count,
				Population: population,
			})
			continue
		}

		zip3 := NormalizeZIP3(rec.GeoID)
		members := UHFsForZIP3(zip3)
		if len(members) == 0 {
			stats.BadGeo++
			continue
		}
		for _, uhf := range members {
			obs = append(obs, model.Observation{
				Geo:        strconv.Itoa(uhf),
				Level:      model.LevelUHF42,
				Year:       year,
				Value:      count,
				Population: population,
			})
		}
	}

	stats.KeptRows = len(obs)
	log.Info("discharge rows normalized",
		zap.Int("input", len(records)),
		zap.Int("kept", stats.KeptRows),
		zap.Int("filtered", stats.Filtered),
		zap.Int("bad_geo", stats.BadGeo),
		zap.Int("bad_period", stats.BadPeriod),
		zap.Int("suppressed", stats.Suppressed),
	)
	return obs, stats
}

// Validate rejects policies the pipeline cannot execute.
func (p Policy) Validate() error {
	if len(p.Pollutants) == 0 {
		return eris.New("clean: policy retains no pollutants")
	}
	switch p.Level {
	case model.LevelUHF42, model.LevelZIP3, model.LevelBorough:
		return nil
	default:
		return eris.Errorf("clean: unknown geographic level %q", p.Level)
	}
}
