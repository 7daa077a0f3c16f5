// Package join groups cleaned observations on the (geography, year)
// compound key and merges the two aggregated sides into one table.
package join

import (
	"sort"

	"github.com/citydatalab/airhealth/internal/model"
)

// Key is the compound group-by and join key.
type Key struct {
	Geo  string
	Year int
}

// AggFunc reduces the values sharing a key to one summary value.
type AggFunc string

const (
	AggMean AggFunc = "mean"
	AggSum  AggFunc = "sum"
)

// PollutantSeries holds per-key aggregated concentrations for the
// retained pollutants.
type PollutantSeries struct {
	Key    Key
	Values map[model.Pollutant]float64
}

// DischargeSeries holds per-key aggregated discharge counts and the
// summed population denominator.
type DischargeSeries struct {
	Key        Key
	Count      float64
	Population float64
}

// AggregatePollutants reduces air-quality observations to one value per
// (geo, year, pollutant) using fn, then pivots pollutants into columns.
// Output is sorted by key for deterministic downstream results.
func AggregatePollutants(obs []model.Observation, fn AggFunc) []PollutantSeries {
	type cell struct {
		sum float64
		n   int
	}
	groups := make(map[Key]map[model.Pollutant]*cell)

	for _, o := range obs {
		k := Key{Geo: o.Geo, Year: o.Year}
		byPollutant, ok := groups[k]
		if !ok {
			byPollutant = make(map[model.Pollutant]*cell)
			groups[k] = byPollutant
		}
		c, ok := byPollutant[o.Pollutant]
		if !ok {
			c = &cell{}
			byPollutant[o.Pollutant] = c
		}
		c.sum += o.Value
		c.n++
	}

	series := make([]PollutantSeries, 0, len(groups))
	for k, byPollutant := range groups {
		values := make(map[model.Pollutant]float64, len(byPollutant))
		for p, c := range byPollutant {
			values[p] = reduce(c.sum, c.n, fn)
		}
		series = append(series, PollutantSeries{Key: k, Values: values})
	}
	sortByKey(series, func(s PollutantSeries) Key { return s.Key })
	return series
}

// AggregateDischarges reduces discharge observations to one count per
// (geo, year) using fn. Population is always summed: it is a denominator,
// not a sampled measurement.
func AggregateDischarges(obs []model.Observation, fn AggFunc) []DischargeSeries {
	type cell struct {
		sum, pop float64
		n        int
	}
	groups := make(map[Key]*cell)

	for _, o := range obs {
		k := Key{Geo: o.Geo, Year: o.Year}
		c, ok := groups[k]
		if !ok {
			c = &cell{}
			groups[k] = c
		}
		c.sum += o.Value
		c.pop += o.Population
		c.n++
	}

	series := make([]DischargeSeries, 0, len(groups))
	for k, c := range groups {
		series = append(series, DischargeSeries{
			Key:        k,
			Count:      reduce(c.sum, c.n, fn),
			Population: c.pop,
		})
	}
	sortByKey(series, func(s DischargeSeries) Key { return s.Key })
	return series
}

func reduce(sum float64, n int, fn AggFunc) float64 {
	if fn == AggMean && n > 0 {
		return sum / float64(n)
	}
	return sum
}

func sortByKey[T any](s []T, key func(T) Key) {
	sort.Slice(s, func(i, j int) bool {
		a, b := key(s[i]), key(s[j])
		if a.Geo != b.Geo {
			return a.Geo < b.Geo
		}
		return a.Year < b.Year
	})
}
