package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "scadapulse/internal/errors"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, DefaultTimezone, cfg.Analysis.Timezone)
	assert.Equal(t, 0.3, cfg.Analysis.Forecast.Alpha)
	assert.Equal(t, 2.0, cfg.Analysis.Forecast.RampAlertSigma)
	assert.Equal(t, 12, cfg.Analysis.Summary.AnomalyWindow)
	assert.Equal(t, 5, cfg.Retrieval.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Retrieval.Backoff)
	assert.Equal(t, "memory", cfg.Status.Backend)

	loc, err := cfg.Analysis.Location()
	require.NoError(t, err)
	_, offset := time.Date(2024, 1, 15, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 10*3600, offset)
}

func TestValidate_Timezone(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{"market time", "Australia/Brisbane", false},
		{"utc", "UTC", false},
		{"daylight saving", "Australia/Sydney", true},
		{"northern daylight saving", "Europe/London", true},
		{"unknown", "Mars/Olympus", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Analysis.Timezone = tt.timezone
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		env      map[string]string
		wantErr  bool
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults only",
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "yaml overlays defaults",
			yaml: `
server:
  port: 9090
analysis:
  forecast:
    alpha: 0.5
retrieval:
  mode: archive
  timeout: 10s
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 0.5, cfg.Analysis.Forecast.Alpha)
				assert.Equal(t, 2.0, cfg.Analysis.Forecast.RampAlertSigma, "untouched keys keep defaults")
				assert.Equal(t, "archive", cfg.Retrieval.Mode)
				assert.Equal(t, 10*time.Second, cfg.Retrieval.Timeout)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
			},
		},
		{
			name: "environment wins over yaml",
			yaml: "server:\n  port: 9090\n",
			env: map[string]string{
				"SCADA_SERVER_PORT":                        "7070",
				"SCADA_ANALYSIS_FORECAST_RAMP_ALERT_SIGMA": "3",
				"SCADA_SCHEDULE_UNITS":                     "BAYSW1,ERARING",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, 3.0, cfg.Analysis.Forecast.RampAlertSigma)
				assert.Equal(t, []string{"BAYSW1", "ERARING"}, cfg.Schedule.Units)
			},
		},
		{
			name:    "invalid alpha",
			env:     map[string]string{"SCADA_ANALYSIS_FORECAST_ALPHA": "1.5"},
			wantErr: true,
		},
		{
			name:    "invalid mode",
			yaml:    "retrieval:\n  mode: ftp\n",
			wantErr: true,
		},
		{
			name:    "redis without address",
			env:     map[string]string{"SCADA_STATUS_BACKEND": "redis"},
			wantErr: true,
		},
		{
			name:    "storage without bucket",
			yaml:    "storage:\n  enabled: true\n  endpoint: localhost:9000\n",
			wantErr: true,
		},
		{
			name:    "unknown timezone",
			yaml:    "analysis:\n  timezone: Mars/Olympus\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			yaml:    "server: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeYAML(t, tt.yaml)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig), "got %v", err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadUsesConfigFileEnv(t *testing.T) {
	t.Setenv(ConfigFileEnv, writeYAML(t, "logging:\n  level: debug\n"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
