package dataprocessing

import (
	"sort"
	"strings"

	"scadapulse/pkg/contracts/domain"
)

// AllUnits is the unit filter token that keeps every unit.
const AllUnits = "*"

// ParseUnitList splits a comma separated unit list into upper-case ids.
// Blank entries are dropped.
func ParseUnitList(raw string) []string {
	var units []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			units = append(units, part)
		}
	}
	return units
}

// FilterUnits keeps the readings of the listed units. An empty list or
// one containing AllUnits keeps everything. Matching ignores case.
func FilterUnits(readings []domain.Reading, units []string) []domain.Reading {
	if len(units) == 0 {
		return readings
	}
	keep := make(map[string]bool, len(units))
	for _, u := range units {
		u = strings.ToUpper(strings.TrimSpace(u))
		if u == AllUnits {
			return readings
		}
		keep[u] = true
	}

	out := make([]domain.Reading, 0, len(readings))
	for _, r := range readings {
		if keep[r.UnitID] {
			out = append(out, r)
		}
	}
	return out
}

// UnitCount is the number of readings seen for one unit.
type UnitCount struct {
	UnitID string `json:"unit_id"`
	Count  int    `json:"count"`
}

// DiscoverUnits counts readings per unit, most frequent first with ties
// broken by unit id. top <= 0 returns every unit.
func DiscoverUnits(readings []domain.Reading, top int) []UnitCount {
	counts := make(map[string]int)
	for _, r := range readings {
		counts[r.UnitID]++
	}

	out := make([]UnitCount, 0, len(counts))
	for id, c := range counts {
		out = append(out, UnitCount{UnitID: id, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].UnitID < out[j].UnitID
	})

	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}

// UnitsPresent returns the distinct unit ids of readings in ascending order.
func UnitsPresent(readings []domain.Reading) []string {
	return domain.SortedUnitIDs(domain.GroupByUnit(readings))
}
