package join

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/citydatalab/airhealth/internal/clean"
	"github.com/citydatalab/airhealth/internal/model"
)

// Type selects how unmatched keys are treated. Inner drops them; left
// keeps every pollutant-side key with a zero/NaN discharge column. The
// choice changes correlation inputs, so it is fixed per run.
type Type string

const (
	Inner Type = "inner"
	Left  Type = "left"
)

// ParseType validates a configured join type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case Inner, Left:
		return Type(s), nil
	default:
		return "", eris.Errorf("join: unknown join type %q", s)
	}
}

// Join merges the two aggregated sides on (geo, year). The pollutant side
// is the left table. Output order follows the left side's sorted order,
// so identical inputs produce identical output.
func Join(pollutants []PollutantSeries, discharges []DischargeSeries, jt Type, level model.GeoLevel) []model.AggregatedMetric {
	byKey := make(map[Key]DischargeSeries, len(discharges))
	for _, d := range discharges {
		byKey[d.Key] = d
	}

	var metrics []model.AggregatedMetric
	var unmatched int
	for _, p := range pollutants {
		d, matched := byKey[p.Key]
		if !matched {
			unmatched++
			if jt == Inner {
				continue
			}
		}

		m := model.AggregatedMetric{
			Geo:            p.Key.Geo,
			Level:          level,
			Year:           p.Key.Year,
			NO2:            pollutantValue(p.Values, model.PollutantNO2),
			O3:             pollutantValue(p.Values, model.PollutantO3),
			DischargeCount: d.Count,
			Population:     d.Population,
			Matched:        matched,
		}
		if matched {
			m.RatePer10K = model.Rate(d.Count, d.Population)
		} else {
			m.DischargeCount = math.NaN()
			m.RatePer10K = math.NaN()
		}
		metrics = append(metrics, m)
	}

	zap.L().Info("datasets joined",
		zap.String("join", string(jt)),
		zap.Int("left_rows", len(pollutants)),
		zap.Int("right_rows", len(discharges)),
		zap.Int("output_rows", len(metrics)),
		zap.Int("unmatched_left", unmatched),
	)
	return metrics
}

// pollutantValue reads one pollutant out of a pivoted series. A key with
// no observations for that pollutant yields NaN, never zero: a missing
// concentration is dropped downstream, not treated as clean air.
func pollutantValue(values map[model.Pollutant]float64, p model.Pollutant) float64 {
	v, ok := values[p]
	if !ok {
		return math.NaN()
	}
	return v
}

// RollupBorough re-aggregates UHF42-level metrics to boroughs: mean
// pollutant concentrations, summed counts and populations, recomputed
// rate. Metrics whose key is not a valid UHF42 code are dropped.
func RollupBorough(metrics []model.AggregatedMetric) []model.AggregatedMetric {
	return rollup(metrics, model.LevelBorough, func(geo string) string {
		return clean.BoroughForUHF(clean.ParseUHF(geo))
	})
}

// RollupZIP3 re-aggregates UHF42-level metrics to ZIP3 areas via the
// crosswalk.
func RollupZIP3(metrics []model.AggregatedMetric) []model.AggregatedMetric {
	return rollup(metrics, model.LevelZIP3, func(geo string) string {
		return clean.ZIP3ForUHF(clean.ParseUHF(geo))
	})
}

func rollup(metrics []model.AggregatedMetric, level model.GeoLevel, mapGeo func(string) string) []model.AggregatedMetric {
	type cell struct {
		no2        float64
		no2N       int
		o3         float64
		o3N        int
		count, pop float64
		matched    bool
	}
	groups := make(map[Key]*cell)
	var dropped int

	for _, m := range metrics {
		geo := mapGeo(m.Geo)
		if geo == "" {
			dropped++
			continue
		}
		k := Key{Geo: geo, Year: m.Year}
		c, ok := groups[k]
		if !ok {
			c = &cell{}
			groups[k] = c
		}
		if !math.IsNaN(m.NO2) {
			c.no2 += m.NO2
			c.no2N++
		}
		if !math.IsNaN(m.O3) {
			c.o3 += m.O3
			c.o3N++
		}
		if m.Matched && !math.IsNaN(m.DischargeCount) {
			c.count += m.DischargeCount
			c.pop += m.Population
			c.matched = true
		}
	}

	out := make([]model.AggregatedMetric, 0, len(groups))
	for k, c := range groups {
		m := model.AggregatedMetric{
			Geo:     k.Geo,
			Level:   level,
			Year:    k.Year,
			NO2:     meanOrNaN(c.no2, c.no2N),
			O3:      meanOrNaN(c.o3, c.o3N),
			Matched: c.matched,
		}
		if c.matched {
			m.DischargeCount = c.count
			m.Population = c.pop
			m.RatePer10K = model.Rate(c.count, c.pop)
		} else {
			m.DischargeCount = math.NaN()
			m.RatePer10K = math.NaN()
		}
		out = append(out, m)
	}
	sortByKey(out, func(m model.AggregatedMetric) Key { return Key{Geo: m.Geo, Year: m.Year} })

	if dropped > 0 {
		zap.L().Warn("rollup dropped metrics with unmappable geography",
			zap.String("level", string(level)),
			zap.Int("dropped", dropped),
		)
	}
	return out
}

func meanOrNaN(sum float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Years returns the distinct years present in the metrics, ascending.
func Years(metrics []model.AggregatedMetric) []int {
	seen := make(map[int]bool)
	var years []int
	for _, m := range metrics {
		if !seen[m.Year] {
			seen[m.Year] = true
			years = append(years, m.Year)
		}
	}
	sort.Ints(years)
	return years
}

// FilterYear keeps metrics for one year, preserving order.
func FilterYear(metrics []model.AggregatedMetric, year int) []model.AggregatedMetric {
	var out []model.AggregatedMetric
	for _, m := range metrics {
		if m.Year == year {
			out = append(out, m)
		}
	}
	return out
}
