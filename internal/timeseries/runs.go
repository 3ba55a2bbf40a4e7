package timeseries

// DefaultMinZeroRun is the shortest zero run reported as an outage,
// 15 minutes at 5-minute cadence.
const DefaultMinZeroRun = 3

// Run is an inclusive index range [Start, End].
type Run struct {
	Start int
	End   int
}

// Len returns the number of samples in the run.
func (r Run) Len() int { return r.End - r.Start + 1 }

// ZeroRuns returns the maximal runs of values exactly equal to zero whose
// length is at least minPoints, in ascending order. NaN is not zero and
// breaks a run.
func ZeroRuns(values []float64, minPoints int) []Run {
	if minPoints < 1 {
		minPoints = 1
	}

	var runs []Run
	start := -1
	for i, v := range values {
		if v == 0 {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if run := (Run{Start: start, End: i - 1}); run.Len() >= minPoints {
				runs = append(runs, run)
			}
			start = -1
		}
	}
	if start >= 0 {
		if run := (Run{Start: start, End: len(values) - 1}); run.Len() >= minPoints {
			runs = append(runs, run)
		}
	}
	return runs
}
