package dataprocessing

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadapulse/pkg/contracts/domain"
)

var testDay = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

// series builds 5-minute readings for one unit starting at testDay.
func series(unit string, values ...float64) []domain.Reading {
	readings := make([]domain.Reading, len(values))
	for i, v := range values {
		readings[i] = domain.Reading{
			Timestamp: testDay.Add(time.Duration(i) * domain.SampleInterval),
			UnitID:    unit,
			PowerMW:   v,
		}
	}
	return readings
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestNewSummarizer(t *testing.T) {
	tests := []struct {
		name   string
		config SummarizerConfig
	}{
		{name: "default config", config: DefaultSummarizerConfig()},
		{name: "zero config falls back to defaults", config: SummarizerConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSummarizer(nil, tt.config)
			require.NotNil(t, s)
			assert.NotNil(t, s.logger)
			assert.Equal(t, 5*time.Minute, s.cfg.SampleInterval)
			assert.Equal(t, 3, s.cfg.MinOutagePoints)
			assert.Equal(t, 12, s.cfg.AnomalyWindow)
			assert.Equal(t, 3.0, s.cfg.AnomalyThreshold)
			assert.Positive(t, s.cfg.Workers)
		})
	}
}

func TestSummarizer_SummarizeUnit(t *testing.T) {
	s := NewSummarizer(nil, DefaultSummarizerConfig())

	t.Run("leading outage", func(t *testing.T) {
		got, ok := s.SummarizeUnit("U1", series("U1", 0, 0, 0, 0, 100))
		require.True(t, ok)

		assert.Equal(t, "2024-01-15", got.Day)
		assert.Equal(t, 5, got.NRows)
		assert.InDelta(t, 0.8, got.ZeroFrac, 1e-12)
		assert.Equal(t, 0.0, got.NegFrac)
		require.Len(t, got.Outages, 1)
		assert.Equal(t, 4, got.Outages[0].Points)
		assert.Equal(t, testDay, got.Outages[0].Start)
		assert.Equal(t, testDay.Add(15*time.Minute), got.Outages[0].End)
		assert.InDelta(t, 100.0*5/60, got.EnergyMWh, 1e-9)
		assert.Equal(t, 100.0, got.RampMax)
		assert.Contains(t, got.Notes, "1 outage-like zero segments (≥15 min).")
		assert.Contains(t, got.Notes, "Large ramp detected: 100.0 MW/5min.")
	})

	t.Run("flat series", func(t *testing.T) {
		got, ok := s.SummarizeUnit("U1", series("U1", repeat(50, 50)...))
		require.True(t, ok)

		assert.Equal(t, 0.0, got.SlopeMWPerHr)
		assert.Equal(t, 0, got.Anomalies)
		assert.Equal(t, 0.0, got.RampMax)
		assert.Equal(t, 0.0, got.Ramp95p)
		assert.Empty(t, got.Outages)
		assert.Empty(t, got.Notes)
		assert.Equal(t, 50.0, got.PMean)
	})

	t.Run("all NaN propagates", func(t *testing.T) {
		got, ok := s.SummarizeUnit("U1", series("U1", math.NaN(), math.NaN(), math.NaN()))
		require.True(t, ok)

		assert.True(t, math.IsNaN(got.PMin))
		assert.True(t, math.IsNaN(got.PMax))
		assert.True(t, math.IsNaN(got.PMean))
		assert.True(t, math.IsNaN(got.EnergyMWh))
		assert.Equal(t, 0.0, got.ZeroFrac)
		assert.Equal(t, 0.0, got.RampMax)
		require.Len(t, got.DiurnalProfile, 1)
		assert.True(t, math.IsNaN(got.DiurnalProfile[0].MeanMW))
	})

	t.Run("unordered input and negative dispatch", func(t *testing.T) {
		readings := series("U1", -5, 10, 20, 30)
		readings[0], readings[3] = readings[3], readings[0]

		got, ok := s.SummarizeUnit("U1", readings)
		require.True(t, ok)

		assert.Equal(t, -5.0, got.PMin)
		assert.InDelta(t, 0.25, got.NegFrac, 1e-12)
		assert.Equal(t, "Negative dispatch observed.", got.Notes[0])
		assert.Greater(t, got.SlopeMWPerHr, 5.0)
		assert.Contains(t, got.Notes[len(got.Notes)-1], "Monotonic trend: slope +")
	})

	t.Run("empty", func(t *testing.T) {
		_, ok := s.SummarizeUnit("U1", nil)
		assert.False(t, ok)
	})
}

func TestSummarizer_Invariants(t *testing.T) {
	s := NewSummarizer(nil, DefaultSummarizerConfig())

	inputs := map[string][]float64{
		"ramp":    {0, 10, 40, 90, 160, 250, 360, 250, 160, 90},
		"spiky":   {5, 5, 5, 400, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
		"zeros":   {0, 0, 0, 5, 0, 0, 0, 0, 7, 0, 0},
		"partial": {1, math.NaN(), 3, -2, 0, 0, 0, 8},
		"single":  {42},
	}

	for name, values := range inputs {
		t.Run(name, func(t *testing.T) {
			got, ok := s.SummarizeUnit("U", series("U", values...))
			require.True(t, ok)

			assert.GreaterOrEqual(t, got.Ramp95p, 0.0)
			assert.LessOrEqual(t, got.Ramp95p, got.RampMax)
			assert.GreaterOrEqual(t, got.ZeroFrac, 0.0)
			assert.LessOrEqual(t, got.ZeroFrac, 1.0)
			assert.GreaterOrEqual(t, got.NegFrac, 0.0)
			assert.LessOrEqual(t, got.NegFrac, 1.0)
			assert.LessOrEqual(t, len(got.DiurnalProfile), 24)
			for i, o := range got.Outages {
				assert.GreaterOrEqual(t, o.Points, 3)
				if i > 0 {
					assert.True(t, o.Start.After(got.Outages[i-1].End))
				}
			}

			again, _ := s.SummarizeUnit("U", series("U", values...))
			assert.Equal(t, summaryKey(got), summaryKey(again))
		})
	}
}

func TestSummarizer_DiurnalProfile(t *testing.T) {
	s := NewSummarizer(nil, DefaultSummarizerConfig())

	values := make([]float64, 24)
	for i := range values {
		values[i] = float64(i) + 1.0/3
	}
	got, ok := s.SummarizeUnit("U", series("U", values...))
	require.True(t, ok)

	require.Len(t, got.DiurnalProfile, 2)
	assert.Equal(t, 0, got.DiurnalProfile[0].Hour)
	assert.Equal(t, 1, got.DiurnalProfile[1].Hour)
	assert.Equal(t, 5.833, got.DiurnalProfile[0].MeanMW)
	assert.Equal(t, 17.833, got.DiurnalProfile[1].MeanMW)
}

func TestSummarizer_SummarizeDay(t *testing.T) {
	s := NewSummarizer(nil, DefaultSummarizerConfig())

	var readings []domain.Reading
	readings = append(readings, series("ZZZ1", 1, 2, 3)...)
	readings = append(readings, series("AAA1", math.NaN(), math.NaN())...)
	readings = append(readings, series("MMM1", 0, 0, 0, 0)...)

	day := s.SummarizeDay(context.Background(), readings)

	assert.Equal(t, []string{"AAA1", "MMM1", "ZZZ1"}, day.Units())
	nanUnit, ok := day.Get("AAA1")
	require.True(t, ok)
	assert.True(t, math.IsNaN(nanUnit.PMean))

	zeroUnit, ok := day.Get("MMM1")
	require.True(t, ok)
	assert.Equal(t, 1.0, zeroUnit.ZeroFrac)

	empty := s.SummarizeDay(context.Background(), nil)
	assert.Equal(t, 0, empty.Len())
}

func TestSummarizer_InfiniteCellKeepsDayEncodable(t *testing.T) {
	rows := [][]string{
		{"I", "DISPATCH", "UNIT_SCADA", "1", "SETTLEMENTDATE", "DUID", "SCADAVALUE", "LASTCHANGED"},
		{"D", "DISPATCH", "UNIT_SCADA", "1", "2024/01/15 00:05:00", "U1", "inf", ""},
		{"D", "DISPATCH", "UNIT_SCADA", "1", "2024/01/15 00:10:00", "U1", "5", ""},
		{"D", "DISPATCH", "UNIT_SCADA", "1", "2024/01/15 00:05:00", "U2", "5", ""},
		{"D", "DISPATCH", "UNIT_SCADA", "1", "2024/01/15 00:10:00", "U2", "7", ""},
	}
	readings := ExtractReadings(rows, time.UTC)
	require.Len(t, readings, 4)

	day := NewSummarizer(nil, DefaultSummarizerConfig()).SummarizeDay(context.Background(), readings)
	require.Equal(t, 2, day.Len())
	for _, unit := range day.Units() {
		s, _ := day.Get(unit)
		assert.False(t, math.IsInf(s.RampMax, 0), unit)
		assert.False(t, math.IsInf(s.PMax, 0), unit)
	}

	data, err := json.Marshal(day)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"U2"`)

	result, err := NewForecaster(nil, domain.DefaultForecastConfig()).Forecast(context.Background(), readings)
	require.NoError(t, err)
	_, err = json.Marshal(result)
	require.NoError(t, err)
}

// summaryKey flattens the NaN-free fields used for determinism checks.
func summaryKey(s domain.DuidSummary) []interface{} {
	return []interface{}{s.NRows, s.ZeroFrac, s.NegFrac, s.RampMax, s.Ramp95p,
		s.Outages, s.Anomalies, s.SlopeMWPerHr, s.IntradayUpBursts, s.IntradayDownBursts, s.Notes}
}
