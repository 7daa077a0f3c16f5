package analyze

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citydatalab/airhealth/internal/model"
)

func TestCorrelatePerfectlyLinear(t *testing.T) {
	xs := make([]float64, 10)
	ys := make([]float64, 10)
	for i := range xs {
		xs[i] = float64(i + 1)
		ys[i] = 3*xs[i] + 2
	}

	r := Correlate("x", "y", xs, ys, Pearson)
	require.True(t, r.Defined)
	assert.InDelta(t, 1.0, r.Coefficient, 1e-6)
	assert.Equal(t, 10, r.N)

	r = Correlate("x", "y", xs, ys, Spearman)
	require.True(t, r.Defined)
	assert.InDelta(t, 1.0, r.Coefficient, 1e-6)
}

func TestCorrelateNegative(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	ys := []float64{8, 6, 4, 2}

	r := Correlate("x", "y", xs, ys, Pearson)
	require.True(t, r.Defined)
	assert.InDelta(t, -1.0, r.Coefficient, 1e-6)
}

func TestCorrelateZeroVarianceUndefined(t *testing.T) {
	xs := make([]float64, 10)
	ys := make([]float64, 10)
	for i := range xs {
		xs[i] = 7 // ten identical observations
		ys[i] = float64(i)
	}

	r := Correlate("x", "y", xs, ys, Pearson)
	assert.False(t, r.Defined)
	assert.True(t, math.IsNaN(r.Coefficient))
	assert.Equal(t, 10, r.N)
}

func TestCorrelateTooFewObservations(t *testing.T) {
	r := Correlate("x", "y", []float64{1}, []float64{2}, Pearson)
	assert.False(t, r.Defined)
	assert.True(t, math.IsNaN(r.Coefficient))

	r = Correlate("x", "y", nil, nil, Pearson)
	assert.False(t, r.Defined)
}

func TestCorrelateDropsNaNPairs(t *testing.T) {
	xs := []float64{1, 2, math.NaN(), 4, 5}
	ys := []float64{2, 4, 6, math.NaN(), 10}

	r := Correlate("x", "y", xs, ys, Pearson)
	require.True(t, r.Defined)
	assert.Equal(t, 3, r.N)
	assert.InDelta(t, 1.0, r.Coefficient, 1e-6)
}

func TestCorrelateMismatchedLengths(t *testing.T) {
	r := Correlate("x", "y", []float64{1, 2, 3}, []float64{1, 2}, Pearson)
	assert.False(t, r.Defined)
}

func TestSpearmanMonotoneNonlinear(t *testing.T) {
	// Monotone but nonlinear: Spearman sees a perfect rank agreement,
	// Pearson does not.
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{1, 8, 27, 64, 125}

	sp := Correlate("x", "y", xs, ys, Spearman)
	require.True(t, sp.Defined)
	assert.InDelta(t, 1.0, sp.Coefficient, 1e-6)

	pe := Correlate("x", "y", xs, ys, Pearson)
	require.True(t, pe.Defined)
	assert.Less(t, pe.Coefficient, 1.0)
}

func TestRanksAverageTies(t *testing.T) {
	assert.Equal(t, []float64{1.5, 1.5, 3}, ranks([]float64{5, 5, 9}))
	assert.Equal(t, []float64{3, 1, 2}, ranks([]float64{30, 10, 20}))
}

func TestDescribe(t *testing.T) {
	s := Describe("no2", []float64{10, 20, 30})
	assert.Equal(t, 3, s.N)
	assert.Equal(t, 20.0, s.Mean)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 30.0, s.Max)
	assert.InDelta(t, 10.0, s.StdDev, 1e-9)
}

func TestDescribeSkipsNaN(t *testing.T) {
	s := Describe("rate", []float64{math.NaN(), 10, math.NaN(), 30})
	assert.Equal(t, 2, s.N)
	assert.Equal(t, 20.0, s.Mean)
}

func TestDescribeEmpty(t *testing.T) {
	s := Describe("empty", nil)
	assert.Zero(t, s.N)
	assert.True(t, math.IsNaN(s.Mean))
}

func TestMatrix(t *testing.T) {
	metrics := []model.AggregatedMetric{
		{Geo: "101", NO2: 20, O3: 30, DischargeCount: 100, RatePer10K: 25, Matched: true},
		{Geo: "102", NO2: 25, O3: 28, DischargeCount: 150, RatePer10K: 30, Matched: true},
		{Geo: "103", NO2: 30, O3: 26, DischargeCount: 200, RatePer10K: 35, Matched: true},
	}

	results := Matrix(metrics, Pearson)

	require.Len(t, results, 4)
	assert.Equal(t, "no2", results[0].X)
	assert.Equal(t, "count", results[0].Y)
	for _, r := range results {
		assert.True(t, r.Defined, "%s vs %s", r.X, r.Y)
		assert.Equal(t, Pearson, r.Method)
	}
	// NO2 rises with discharges in this fixture, O3 falls.
	assert.Greater(t, results[0].Coefficient, 0.9)
	assert.Less(t, results[2].Coefficient, -0.9)
}
