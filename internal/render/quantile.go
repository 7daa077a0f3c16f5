package render

import (
	"math"
	"sort"
)

// QuantileClasses assigns each value a class in [0, n) by quantile
// cutpoints, the way the published maps bucketed bivariate variables.
// Duplicate cutpoints are dropped, so skewed data may yield fewer
// effective classes. NaN values get class -1.
func QuantileClasses(values []float64, n int) []int {
	cuts := quantileCuts(values, n)
	classes := make([]int, len(values))
	for i, v := range values {
		classes[i] = classOf(v, cuts)
	}
	return classes
}

// quantileCuts returns the interior cutpoints (deduplicated, ascending).
// A value is in class k when it exceeds the first k cutpoints.
func quantileCuts(values []float64, n int) []float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 || n < 2 {
		return nil
	}
	sort.Float64s(clean)

	var cuts []float64
	for k := 1; k < n; k++ {
		q := quantileLinear(clean, float64(k)/float64(n))
		if len(cuts) == 0 || q > cuts[len(cuts)-1] {
			cuts = append(cuts, q)
		}
	}
	return cuts
}

// quantileLinear interpolates the p-quantile of sorted data.
func quantileLinear(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	i := int(pos)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(i)
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}

func classOf(v float64, cuts []float64) int {
	if math.IsNaN(v) {
		return -1
	}
	class := 0
	for _, c := range cuts {
		if v > c {
			class++
		}
	}
	return class
}
