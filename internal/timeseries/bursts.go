package timeseries

import "math"

const (
	// BurstFloorMW is the smallest burst threshold regardless of series scale.
	BurstFloorMW = 10.0
	// BurstRangeFraction scales the series range into a burst threshold.
	BurstRangeFraction = 0.1
)

// DynamicThreshold returns max(BurstFloorMW, BurstRangeFraction * range) of
// the series. An all-NaN series falls back to the floor. The threshold is
// a property of one series and must be recomputed per unit and day.
func DynamicThreshold(values []float64) float64 {
	spread := NanMax(values) - NanMin(values)
	if math.IsNaN(spread) {
		return BurstFloorMW
	}
	return math.Max(BurstFloorMW, BurstRangeFraction*spread)
}

// CountBursts counts maximal runs of consecutive differences above thr
// (up) and below -thr (down). Only run starts are counted. NaN ends a run.
func CountBursts(diffs []float64, thr float64) (up, down int) {
	prevUp, prevDown := false, false
	for _, d := range diffs {
		isUp := d > thr
		isDown := d < -thr
		if isUp && !prevUp {
			up++
		}
		if isDown && !prevDown {
			down++
		}
		prevUp, prevDown = isUp, isDown
	}
	return up, down
}
