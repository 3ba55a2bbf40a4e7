package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// Outage is a contiguous run of exactly-zero output. Start and End are the
// timestamps of the first and last zero sample, both inclusive.
type Outage struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Points int       `json:"points"`
}

// HourMean is one entry of a diurnal profile.
type HourMean struct {
	Hour   int     `json:"hour"`
	MeanMW float64 `json:"mean_MW"`
}

// DuidSummary is the daily operational aggregate of one unit.
//
// Descriptive statistics are NaN when every reading of the unit is NaN.
// Fractions are always within [0,1] and 0 <= Ramp95p <= RampMax.
// Outages are sorted by start and never overlap. DiurnalProfile holds one
// entry per hour present in the data, ascending.
type DuidSummary struct {
	UnitID             string     `json:"unit_id"`
	Day                string     `json:"day"`
	NRows              int        `json:"n_rows"`
	PMin               float64    `json:"p_min"`
	PMax               float64    `json:"p_max"`
	PMean              float64    `json:"p_mean"`
	EnergyMWh          float64    `json:"energy_mwh"`
	ZeroFrac           float64    `json:"zero_frac"`
	NegFrac            float64    `json:"neg_frac"`
	RampMax            float64    `json:"ramp_max"`
	Ramp95p            float64    `json:"ramp_95p"`
	Outages            []Outage   `json:"outages"`
	Anomalies          int        `json:"anomalies"`
	SlopeMWPerHr       float64    `json:"slope_mw_per_hr"`
	IntradayUpBursts   int        `json:"intraday_up_bursts"`
	IntradayDownBursts int        `json:"intraday_down_bursts"`
	DiurnalProfile     []HourMean `json:"diurnal_profile"`
	Notes              []string   `json:"notes"`
}

// duidSummaryJSON mirrors DuidSummary with nullable floats so NaN
// statistics survive encoding as null.
type duidSummaryJSON struct {
	UnitID             string         `json:"unit_id"`
	Day                string         `json:"day"`
	NRows              int            `json:"n_rows"`
	PMin               *float64       `json:"p_min"`
	PMax               *float64       `json:"p_max"`
	PMean              *float64       `json:"p_mean"`
	EnergyMWh          *float64       `json:"energy_mwh"`
	ZeroFrac           *float64       `json:"zero_frac"`
	NegFrac            *float64       `json:"neg_frac"`
	RampMax            *float64       `json:"ramp_max"`
	Ramp95p            *float64       `json:"ramp_95p"`
	Outages            []Outage       `json:"outages"`
	Anomalies          int            `json:"anomalies"`
	SlopeMWPerHr       *float64       `json:"slope_mw_per_hr"`
	IntradayUpBursts   int            `json:"intraday_up_bursts"`
	IntradayDownBursts int            `json:"intraday_down_bursts"`
	DiurnalProfile     []hourMeanJSON `json:"diurnal_profile"`
	Notes              []string       `json:"notes"`
}

type hourMeanJSON struct {
	Hour   int      `json:"hour"`
	MeanMW *float64 `json:"mean_MW"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func fromNullable(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// MarshalJSON encodes NaN and infinite statistics as null.
func (s DuidSummary) MarshalJSON() ([]byte, error) {
	out := duidSummaryJSON{
		UnitID:             s.UnitID,
		Day:                s.Day,
		NRows:              s.NRows,
		PMin:               nullable(s.PMin),
		PMax:               nullable(s.PMax),
		PMean:              nullable(s.PMean),
		EnergyMWh:          nullable(s.EnergyMWh),
		ZeroFrac:           nullable(s.ZeroFrac),
		NegFrac:            nullable(s.NegFrac),
		RampMax:            nullable(s.RampMax),
		Ramp95p:            nullable(s.Ramp95p),
		Outages:            s.Outages,
		Anomalies:          s.Anomalies,
		SlopeMWPerHr:       nullable(s.SlopeMWPerHr),
		IntradayUpBursts:   s.IntradayUpBursts,
		IntradayDownBursts: s.IntradayDownBursts,
		Notes:              s.Notes,
		DiurnalProfile:     make([]hourMeanJSON, len(s.DiurnalProfile)),
	}
	if out.Outages == nil {
		out.Outages = []Outage{}
	}
	if out.Notes == nil {
		out.Notes = []string{}
	}
	for i, h := range s.DiurnalProfile {
		out.DiurnalProfile[i] = hourMeanJSON{Hour: h.Hour, MeanMW: nullable(h.MeanMW)}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes null statistics back to NaN.
func (s *DuidSummary) UnmarshalJSON(data []byte) error {
	var in duidSummaryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = DuidSummary{
		UnitID:             in.UnitID,
		Day:                in.Day,
		NRows:              in.NRows,
		PMin:               fromNullable(in.PMin),
		PMax:               fromNullable(in.PMax),
		PMean:              fromNullable(in.PMean),
		EnergyMWh:          fromNullable(in.EnergyMWh),
		ZeroFrac:           fromNullable(in.ZeroFrac),
		NegFrac:            fromNullable(in.NegFrac),
		RampMax:            fromNullable(in.RampMax),
		Ramp95p:            fromNullable(in.Ramp95p),
		Outages:            in.Outages,
		Anomalies:          in.Anomalies,
		SlopeMWPerHr:       fromNullable(in.SlopeMWPerHr),
		IntradayUpBursts:   in.IntradayUpBursts,
		IntradayDownBursts: in.IntradayDownBursts,
		Notes:              in.Notes,
		DiurnalProfile:     make([]HourMean, len(in.DiurnalProfile)),
	}
	for i, h := range in.DiurnalProfile {
		s.DiurnalProfile[i] = HourMean{Hour: h.Hour, MeanMW: fromNullable(h.MeanMW)}
	}
	return nil
}

// DaySummary maps unit ids to their daily summaries. Iteration through
// Units is always in ascending unit order so every rendering of the same
// day is deterministic.
type DaySummary struct {
	units map[string]DuidSummary
}

// NewDaySummary builds a DaySummary from summaries keyed by their UnitID.
func NewDaySummary(summaries ...DuidSummary) DaySummary {
	ds := DaySummary{units: make(map[string]DuidSummary, len(summaries))}
	for _, s := range summaries {
		ds.units[s.UnitID] = s
	}
	return ds
}

// Len returns the number of summarized units.
func (d DaySummary) Len() int { return len(d.units) }

// Units returns the unit ids in ascending order.
func (d DaySummary) Units() []string { return SortedUnitIDs(d.units) }

// Get returns the summary of one unit.
func (d DaySummary) Get(unitID string) (DuidSummary, bool) {
	s, ok := d.units[unitID]
	return s, ok
}

// Summaries returns all summaries in unit order.
func (d DaySummary) Summaries() []DuidSummary {
	out := make([]DuidSummary, 0, len(d.units))
	for _, id := range d.Units() {
		out = append(out, d.units[id])
	}
	return out
}

// MarshalJSON encodes the day as an object keyed by unit id, in unit order.
func (d DaySummary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range d.Units() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d.units[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keyed by unit id.
func (d *DaySummary) UnmarshalJSON(data []byte) error {
	units := make(map[string]DuidSummary)
	if err := json.Unmarshal(data, &units); err != nil {
		return err
	}
	d.units = units
	return nil
}
