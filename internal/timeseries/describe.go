package timeseries

import (
	"math"
	"sort"
)

// Finite returns the non-NaN, non-infinite values of values.
func Finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// NanMin returns the smallest non-NaN value, or NaN when there is none.
func NanMin(values []float64) float64 {
	result := math.NaN()
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(result) || v < result {
			result = v
		}
	}
	return result
}

// NanMax returns the largest non-NaN value, or NaN when there is none.
func NanMax(values []float64) float64 {
	result := math.NaN()
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(result) || v > result {
			result = v
		}
	}
	return result
}

// NanSum sums the non-NaN values. The second result is the number of
// values that contributed.
func NanSum(values []float64) (float64, int) {
	sum := 0.0
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	return sum, n
}

// NanMean returns the mean of the non-NaN values, or NaN when there is none.
func NanMean(values []float64) float64 {
	sum, n := NanSum(values)
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// PopulationStdDev returns the population (ddof 0) standard deviation of
// the non-NaN values, or 0 when there is none.
func PopulationStdDev(values []float64) float64 {
	mean := NanMean(values)
	if math.IsNaN(mean) {
		return 0
	}
	sumSquares := 0.0
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		sumSquares += d * d
		n++
	}
	return math.Sqrt(sumSquares / float64(n))
}

// Diff returns first differences; out[0] is NaN and out[i] = v[i]-v[i-1].
// A NaN on either side yields NaN.
func Diff(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i] - values[i-1]
	}
	return out
}

// AbsDiff returns the absolute first differences with the same layout as Diff.
func AbsDiff(values []float64) []float64 {
	out := Diff(values)
	for i, v := range out {
		out[i] = math.Abs(v)
	}
	return out
}

// Percentile returns the q-th percentile (0..100) of the non-NaN values
// using linear interpolation between closest ranks. The second result is
// false when there are no values.
func Percentile(values []float64, q float64) (float64, bool) {
	sorted := Finite(values)
	if len(sorted) == 0 {
		return 0, false
	}
	sort.Float64s(sorted)

	n := len(sorted)
	if q <= 0 {
		return sorted[0], true
	}
	if q >= 100 {
		return sorted[n-1], true
	}

	index := q / 100 * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower], true
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight, true
}

// ForwardFill replaces each NaN with the last preceding non-NaN value.
// Leading NaNs, which have no predecessor, become fill.
func ForwardFill(values []float64, fill float64) []float64 {
	out := make([]float64, len(values))
	last := math.NaN()
	for i, v := range values {
		if !math.IsNaN(v) {
			last = v
			out[i] = v
			continue
		}
		if math.IsNaN(last) {
			out[i] = fill
			continue
		}
		out[i] = last
	}
	return out
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
