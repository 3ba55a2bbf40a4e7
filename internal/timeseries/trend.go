package timeseries

import "math"

// MinTrendPoints is the fewest valid samples a trend is fitted on.
const MinTrendPoints = 3

// LinearSlope fits y = a + b*x by ordinary least squares over the pairs
// where both coordinates are finite and returns b. Fewer than
// MinTrendPoints pairs, or a degenerate x spread, yields 0.
func LinearSlope(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}

	var sx, sy float64
	count := 0
	for i := 0; i < n; i++ {
		if !validPair(x[i], y[i]) {
			continue
		}
		sx += x[i]
		sy += y[i]
		count++
	}
	if count < MinTrendPoints {
		return 0
	}

	mx := sx / float64(count)
	my := sy / float64(count)
	var sxy, sxx float64
	for i := 0; i < n; i++ {
		if !validPair(x[i], y[i]) {
			continue
		}
		dx := x[i] - mx
		sxy += dx * (y[i] - my)
		sxx += dx * dx
	}
	if sxx == 0 {
		return 0
	}
	return sxy / sxx
}

func validPair(x, y float64) bool {
	return !math.IsNaN(x) && !math.IsNaN(y) && !math.IsInf(x, 0) && !math.IsInf(y, 0)
}
