package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadapulse/internal/config"
	apperrors "scadapulse/internal/errors"
	"scadapulse/pkg/contracts/domain"
)

func sampleSummary() domain.DaySummary {
	return domain.NewDaySummary(
		domain.DuidSummary{UnitID: "BAYSW1", Day: "2024-01-15", Anomalies: 2, Ramp95p: 22.46, SlopeMWPerHr: 3.04,
			Outages: []domain.Outage{{Points: 3}}},
		domain.DuidSummary{UnitID: "ERARING", Day: "2024-01-15", Ramp95p: 5, SlopeMWPerHr: -7.25},
	)
}

func sampleForecast() []domain.ForecastPoint {
	t0 := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	return []domain.ForecastPoint{
		{Timestamp: t0, UnitID: "ERARING", PowerHatMW: 100},
		{Timestamp: t0.Add(5 * time.Minute), UnitID: "ERARING", PowerHatMW: 100.25},
		{Timestamp: t0.Add(time.Hour), UnitID: "ERARING", PowerHatMW: 300},
		{Timestamp: t0, UnitID: "BAYSW1", PowerHatMW: 50},
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt(sampleSummary(), sampleForecast())
	want := strings.Join([]string{
		"# KPIs and anomalies summary",
		"BAYSW1 | anomalies=2, ramp95=22.5, trend=+3.0 MW/h",
		"ERARING | anomalies=0, ramp95=5.0, trend=-7.2 MW/h",
		"",
		"# Forecast hourly mean MW",
		"BAYSW1 h00=50.0",
		"ERARING h00=100.1",
		"ERARING h01=300.0",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestBuildPrompt_NoForecast(t *testing.T) {
	got := BuildPrompt(sampleSummary(), nil)
	assert.NotContains(t, got, "Forecast hourly mean")
}

func TestBuildPrompt_Capped(t *testing.T) {
	var summaries []domain.DuidSummary
	for i := 0; i < 2000; i++ {
		summaries = append(summaries, domain.DuidSummary{UnitID: fmt.Sprintf("UNIT%04d", i)})
	}
	got := BuildPrompt(domain.NewDaySummary(summaries...), nil)
	assert.LessOrEqual(t, len(got), MaxPromptBytes)
	assert.True(t, strings.HasPrefix(got, "# KPIs and anomalies summary"))
}

func TestTemplateNarrator(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	text, err := TemplateNarrator{}.Narrate(context.Background(), Request{
		Day: day, Summary: sampleSummary(), Forecast: sampleForecast(),
	})
	require.NoError(t, err)
	assert.Contains(t, text, "2024-01-15: 2 units reviewed.")
	assert.Contains(t, text, "Anomalies on BAYSW1 (2).")
	assert.Contains(t, text, "Steepest ramping: BAYSW1")
	assert.Contains(t, text, "Strongest intraday trend: ERARING at -7.2 MW/h.")
	assert.Contains(t, text, "Outage-like zero segments on BAYSW1.")
	assert.Contains(t, text, "Next-day peak forecast: ERARING at 300.0 MW around 01:00.")

	text, err = TemplateNarrator{}.Narrate(context.Background(), Request{Day: day, Summary: domain.NewDaySummary()})
	require.NoError(t, err)
	assert.Contains(t, text, "no SCADA data")
}

func TestChatNarrator(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  All nominal.  "}}],"usage":{"total_tokens":42}}`))
	}))
	defer server.Close()

	cfg := config.Default().Narrative
	cfg.Endpoint = server.URL
	cfg.APIKey = "secret"

	text, err := NewChatNarrator(cfg, server.Client(), nil).Narrate(context.Background(), Request{
		Day: time.Now(), Summary: sampleSummary(),
	})
	require.NoError(t, err)
	assert.Equal(t, "All nominal.", text)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, SystemPrompt, got.Messages[0].Content)
	assert.Contains(t, got.Messages[1].Content, "# KPIs and anomalies summary")
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 350, got.MaxTokens)
}

func TestChatNarrator_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default().Narrative
	cfg.Endpoint = server.URL

	_, err := NewChatNarrator(cfg, server.Client(), nil).Narrate(context.Background(), Request{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeUnavailable))

	cfg.APIKey = "secret"
	_, err = NewChatNarrator(cfg, server.Client(), nil).Narrate(context.Background(), Request{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
}

type countingNarrator struct {
	calls atomic.Int32
}

func (c *countingNarrator) Narrate(ctx context.Context, req Request) (string, error) {
	c.calls.Add(1)
	return "fresh status\n", nil
}

func TestFileCache(t *testing.T) {
	paths := config.NewPaths(config.PathsConfig{DataDir: t.TempDir(), LogsDir: t.TempDir()})
	inner := &countingNarrator{}
	cache := NewFileCache(inner, paths, 2, nil)
	ctx := context.Background()

	jan15 := Request{Day: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}
	text, err := cache.Narrate(ctx, jan15)
	require.NoError(t, err)
	assert.Equal(t, "fresh status", text)

	text, err = cache.Narrate(ctx, jan15)
	require.NoError(t, err)
	assert.Equal(t, "fresh status", text)
	assert.EqualValues(t, 1, inner.calls.Load())

	_, err = cache.Narrate(ctx, Request{Day: time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	_, err = cache.Narrate(ctx, Request{Day: time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeUnavailable))
	assert.EqualValues(t, 2, inner.calls.Load())

	_, err = cache.Narrate(ctx, Request{Day: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	data, err := os.ReadFile(paths.NarrativePath(jan15.Day))
	require.NoError(t, err)
	assert.Equal(t, "fresh status", string(data))
}

func TestNew(t *testing.T) {
	paths := config.NewPaths(config.PathsConfig{DataDir: t.TempDir(), LogsDir: t.TempDir()})
	cfg := config.Default().Narrative

	assert.Nil(t, New(cfg, paths, nil))

	cfg.Enabled = true
	n := New(cfg, paths, nil)
	require.NotNil(t, n)
	cache, ok := n.(*FileCache)
	require.True(t, ok)
	assert.IsType(t, TemplateNarrator{}, cache.inner)

	cfg.Provider = "chat"
	cache = New(cfg, paths, nil).(*FileCache)
	assert.IsType(t, &ChatNarrator{}, cache.inner)
}
