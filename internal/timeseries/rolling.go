package timeseries

import "math"

const (
	// DefaultAnomalyWindow is one hour of 5-minute samples.
	DefaultAnomalyWindow = 12
	// DefaultZThreshold is the |z| above which a sample is flagged.
	DefaultZThreshold = 3.0
)

// DefaultMinPeriods returns the minimum number of valid samples a rolling
// window needs before it yields a statistic: half the window, but never
// fewer than three.
func DefaultMinPeriods(window int) int {
	if half := window / 2; half > 3 {
		return half
	}
	return 3
}

// RollingStats computes the trailing rolling mean and population standard
// deviation of values. The window ending at index i covers
// values[i-window+1 .. i]; NaN samples inside it are ignored, and when
// fewer than minPeriods valid samples remain both outputs are NaN.
func RollingStats(values []float64, window, minPeriods int) (means, stds []float64) {
	means = make([]float64, len(values))
	stds = make([]float64, len(values))
	if window < 1 {
		window = 1
	}
	if minPeriods < 1 {
		minPeriods = 1
	}

	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}

		sum := 0.0
		n := 0
		for _, v := range values[start : i+1] {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		if n < minPeriods {
			means[i] = math.NaN()
			stds[i] = math.NaN()
			continue
		}

		mean := sum / float64(n)
		sq := 0.0
		for _, v := range values[start : i+1] {
			if math.IsNaN(v) {
				continue
			}
			d := v - mean
			sq += d * d
		}
		means[i] = mean
		stds[i] = math.Sqrt(sq / float64(n))
	}
	return means, stds
}

// RollingZScoreFlags flags samples whose distance from the trailing rolling
// mean exceeds threshold rolling standard deviations. A NaN sample, a
// window below minPeriods, and a zero standard deviation never flag.
func RollingZScoreFlags(values []float64, window, minPeriods int, threshold float64) []bool {
	means, stds := RollingStats(values, window, minPeriods)
	flags := make([]bool, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsNaN(means[i]) || math.IsNaN(stds[i]) || stds[i] == 0 {
			continue
		}
		z := (v - means[i]) / stds[i]
		flags[i] = math.Abs(z) > threshold
	}
	return flags
}

// CountTrue returns how many flags are set.
func CountTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
