package domain

import (
	"sort"
	"time"
)

const (
	// SampleInterval is the dispatch cadence of SCADA telemetry.
	SampleInterval = 5 * time.Minute

	// SlotsPerDay is the number of 5-minute slots between two midnights.
	SlotsPerDay = int(24 * time.Hour / SampleInterval)

	// DayLayout is the calendar-date layout used in file names, JSON and the API.
	DayLayout = "2006-01-02"
)

// ReadingColumns is the canonical column order of a readings table.
var ReadingColumns = []string{"timestamp", "unit_id", "power_MW"}

// Reading is one SCADA sample for one generating unit.
//
// PowerMW may be NaN when the source value could not be coerced; such
// readings are kept so that aggregate statistics reflect the corruption.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	UnitID    string    `json:"unit_id"`
	PowerMW   float64   `json:"power_MW"`
}

// GroupByUnit splits readings per unit id, preserving input order within
// each unit.
func GroupByUnit(readings []Reading) map[string][]Reading {
	groups := make(map[string][]Reading)
	for _, r := range readings {
		groups[r.UnitID] = append(groups[r.UnitID], r)
	}
	return groups
}

// SortedUnitIDs returns the keys of a grouping in ascending order.
func SortedUnitIDs[T any](groups map[string]T) []string {
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SortByTime orders readings by timestamp. The sort is stable so duplicate
// timestamps keep their input order.
func SortByTime(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
}

// SortReadings orders readings unit-major, then by timestamp.
func SortReadings(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		if readings[i].UnitID != readings[j].UnitID {
			return readings[i].UnitID < readings[j].UnitID
		}
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
}

// MinTimestamp returns the earliest timestamp and false when readings is empty.
func MinTimestamp(readings []Reading) (time.Time, bool) {
	if len(readings) == 0 {
		return time.Time{}, false
	}
	earliest := readings[0].Timestamp
	for _, r := range readings[1:] {
		if r.Timestamp.Before(earliest) {
			earliest = r.Timestamp
		}
	}
	return earliest, true
}

// FloorDay truncates t to local midnight in t's location.
func FloorDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
