package domain

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuidSummary_JSONNaN(t *testing.T) {
	s := DuidSummary{
		UnitID:         "BAYSW1",
		Day:            "2024-01-15",
		NRows:          3,
		PMin:           math.NaN(),
		PMax:           math.NaN(),
		PMean:          math.NaN(),
		EnergyMWh:      math.NaN(),
		DiurnalProfile: []HourMean{{Hour: 0, MeanMW: math.NaN()}},
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"p_min":null`)
	assert.Contains(t, string(data), `"mean_MW":null`)
	assert.Contains(t, string(data), `"outages":[]`)
	assert.Contains(t, string(data), `"notes":[]`)

	var back DuidSummary
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, math.IsNaN(back.PMin))
	assert.True(t, math.IsNaN(back.EnergyMWh))
	require.Len(t, back.DiurnalProfile, 1)
	assert.True(t, math.IsNaN(back.DiurnalProfile[0].MeanMW))
}

func TestDuidSummary_JSONInfinite(t *testing.T) {
	s := DuidSummary{
		UnitID:       "U1",
		PMin:         5,
		PMax:         math.Inf(1),
		RampMax:      math.Inf(1),
		Ramp95p:      math.Inf(-1),
		SlopeMWPerHr: math.NaN(),
		ZeroFrac:     0.25,
	}

	data, err := json.Marshal(NewDaySummary(s, DuidSummary{UnitID: "U2", PMin: 1}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ramp_max":null`)
	assert.Contains(t, string(data), `"ramp_95p":null`)
	assert.Contains(t, string(data), `"slope_mw_per_hr":null`)
	assert.Contains(t, string(data), `"zero_frac":0.25`)

	var back DuidSummary
	require.NoError(t, json.Unmarshal([]byte(`{"unit_id":"U1","ramp_max":null,"neg_frac":0.5}`), &back))
	assert.True(t, math.IsNaN(back.RampMax))
	assert.Equal(t, 0.5, back.NegFrac)
}

func TestDaySummary_OrderedJSON(t *testing.T) {
	day := NewDaySummary(
		DuidSummary{UnitID: "ZZZ1", NRows: 1},
		DuidSummary{UnitID: "AAA1", NRows: 2},
		DuidSummary{UnitID: "MMM1", NRows: 3},
	)

	assert.Equal(t, 3, day.Len())
	assert.Equal(t, []string{"AAA1", "MMM1", "ZZZ1"}, day.Units())

	data, err := json.Marshal(day)
	require.NoError(t, err)

	text := string(data)
	a := strings.Index(text, `"AAA1"`)
	m := strings.Index(text, `"MMM1"`)
	z := strings.Index(text, `"ZZZ1"`)
	assert.True(t, a < m && m < z, "units must be encoded in ascending order: %s", text)

	var back DaySummary
	require.NoError(t, json.Unmarshal(data, &back))
	got, ok := back.Get("MMM1")
	require.True(t, ok)
	assert.Equal(t, 3, got.NRows)
}

func TestForecastConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ForecastConfig
		wantErr bool
	}{
		{name: "defaults", cfg: DefaultForecastConfig()},
		{name: "alpha one", cfg: ForecastConfig{Alpha: 1, RampAlertSigma: 0}},
		{name: "alpha zero", cfg: ForecastConfig{Alpha: 0, RampAlertSigma: 2}, wantErr: true},
		{name: "alpha above one", cfg: ForecastConfig{Alpha: 1.01, RampAlertSigma: 2}, wantErr: true},
		{name: "alpha NaN", cfg: ForecastConfig{Alpha: math.NaN(), RampAlertSigma: 2}, wantErr: true},
		{name: "negative sigma", cfg: ForecastConfig{Alpha: 0.3, RampAlertSigma: -0.1}, wantErr: true},
		{name: "infinite sigma", cfg: ForecastConfig{Alpha: 0.3, RampAlertSigma: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSortReadings(t *testing.T) {
	base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	readings := []Reading{
		{Timestamp: base.Add(10 * time.Minute), UnitID: "B"},
		{Timestamp: base, UnitID: "B"},
		{Timestamp: base.Add(5 * time.Minute), UnitID: "A"},
	}

	SortReadings(readings)

	assert.Equal(t, "A", readings[0].UnitID)
	assert.Equal(t, base, readings[1].Timestamp)
	assert.Equal(t, base.Add(10*time.Minute), readings[2].Timestamp)

	earliest, ok := MinTimestamp(readings)
	require.True(t, ok)
	assert.Equal(t, base, earliest)
	assert.Equal(t, 288, SlotsPerDay)
}
