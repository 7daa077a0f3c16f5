// Package analyze computes summary and correlation statistics over the
// joined metrics. Degenerate inputs (fewer than two observations, zero
// variance) yield an explicitly undefined result, never a fabricated
// coefficient.
package analyze

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/citydatalab/airhealth/internal/model"
)

// Method selects a correlation statistic.
type Method string

const (
	Pearson  Method = "pearson"
	Spearman Method = "spearman"
)

// Result is one pairwise correlation. Defined is false when the
// statistic does not exist for the input; Coefficient is NaN then.
type Result struct {
	X, Y        string
	Method      Method
	Coefficient float64
	N           int
	Defined     bool
}

// Undefined reports whether a correlation over the two series would be
// degenerate: fewer than two paired observations, or a zero-variance
// side, after NaN pairs are removed.
func Undefined(xs, ys []float64) bool {
	xs, ys = dropNaNPairs(xs, ys)
	if len(xs) < 2 {
		return true
	}
	return variance(xs) == 0 || variance(ys) == 0
}

// Correlate computes the pairwise correlation between two equal-length
// series. NaN pairs (unmatched left-join rows, unknown rates) are
// excluded before the statistic is taken.
func Correlate(xName, yName string, xs, ys []float64, method Method) Result {
	r := Result{X: xName, Y: yName, Method: method, Coefficient: math.NaN()}
	if len(xs) != len(ys) {
		return r
	}

	xs, ys = dropNaNPairs(xs, ys)
	r.N = len(xs)
	if Undefined(xs, ys) {
		return r
	}

	switch method {
	case Spearman:
		r.Coefficient = stat.Correlation(ranks(xs), ranks(ys), nil)
	default:
		r.Coefficient = stat.Correlation(xs, ys, nil)
	}
	r.Defined = !math.IsNaN(r.Coefficient)
	return r
}

// Summary holds descriptive statistics for one series.
type Summary struct {
	Name         string
	N            int
	Mean, StdDev float64
	Min, Max     float64
}

// Describe computes descriptive statistics, skipping NaN values.
func Describe(name string, values []float64) Summary {
	s := Summary{Name: name, Mean: math.NaN(), StdDev: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	clean := values[:0:0]
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	s.N = len(clean)
	if s.N == 0 {
		return s
	}
	s.Mean = stat.Mean(clean, nil)
	s.Min, s.Max = clean[0], clean[0]
	for _, v := range clean[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	if s.N > 1 {
		s.StdDev = stat.StdDev(clean, nil)
	} else {
		s.StdDev = 0
	}
	return s
}

// Series extracts the named analysis columns from the joined metrics.
func Series(metrics []model.AggregatedMetric) map[string][]float64 {
	out := map[string][]float64{
		"no2":   make([]float64, 0, len(metrics)),
		"o3":    make([]float64, 0, len(metrics)),
		"count": make([]float64, 0, len(metrics)),
		"rate":  make([]float64, 0, len(metrics)),
	}
	for _, m := range metrics {
		out["no2"] = append(out["no2"], m.NO2)
		out["o3"] = append(out["o3"], m.O3)
		out["count"] = append(out["count"], m.DischargeCount)
		out["rate"] = append(out["rate"], m.RatePer10K)
	}
	return out
}

// Matrix computes every pollutant-vs-outcome correlation with the given
// method, in a fixed order.
func Matrix(metrics []model.AggregatedMetric, method Method) []Result {
	series := Series(metrics)
	pairs := [][2]string{
		{"no2", "count"},
		{"no2", "rate"},
		{"o3", "count"},
		{"o3", "rate"},
	}
	results := make([]Result, 0, len(pairs))
	for _, p := range pairs {
		results = append(results, Correlate(p[0], p[1], series[p[0]], series[p[1]], method))
	}
	return results
}

func dropNaNPairs(xs, ys []float64) ([]float64, []float64) {
	cx := make([]float64, 0, len(xs))
	cy := make([]float64, 0, len(ys))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		cx = append(cx, xs[i])
		cy = append(cy, ys[i])
	}
	return cx, cy
}

func variance(xs []float64) float64 {
	return stat.Variance(xs, nil)
}

// ranks assigns fractional ranks, averaging ties, for the Spearman
// statistic.
func ranks(xs []float64) []float64 {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	r := make([]float64, len(xs))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		// ranks are 1-based; ties share the average rank
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			r[idx[k]] = avg
		}
		i = j + 1
	}
	return r
}
