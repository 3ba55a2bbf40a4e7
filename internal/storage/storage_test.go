package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadapulse/internal/config"
	apperrors "scadapulse/internal/errors"
	"scadapulse/pkg/contracts/events"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	base := time.Date(2024, 1, 15, 6, 30, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, events.RunSnapshot{
			RunID:     id,
			Status:    events.StatusRunning,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, events.StatusRunning, got.Status)

	require.NoError(t, store.Save(ctx, events.RunSnapshot{RunID: "b", Status: events.StatusCompleted, StartedAt: got.StartedAt}))
	got, err = store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, events.StatusCompleted, got.Status)

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, "a", runs[2].RunID)

	runs, err = store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	_, err = store.Get(ctx, "missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, events.RunSnapshot{RunID: "old"}))
	now = now.Add(2 * time.Minute)

	_, err := store.Get(ctx, "old")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestNewStatusStore(t *testing.T) {
	ctx := context.Background()

	store, err := NewStatusStore(ctx, config.StatusConfig{Backend: "memory", TTL: time.Hour}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewStatusStore(ctx, config.StatusConfig{Backend: "etcd"}, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err = NewStatusStore(ctx, config.StatusConfig{Backend: "redis", RedisAddr: "127.0.0.1:1", TTL: time.Hour}, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeUnavailable))
}

func TestRunKey(t *testing.T) {
	assert.Equal(t, "run_status:abc", runKey("abc"))
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"forecast.csv": "text/csv",
		"report.json":  "application/json",
		"report.md":    "text/markdown; charset=utf-8",
		"report.pdf":   "application/pdf",
		"blob":         "application/octet-stream",
	}
	for file, want := range tests {
		t.Run(file, func(t *testing.T) {
			assert.Equal(t, want, contentType(file))
		})
	}
}

func TestNewS3Publisher_Disabled(t *testing.T) {
	pub, err := NewS3Publisher(config.StorageConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, pub)
}

func TestS3Publisher_Publish(t *testing.T) {
	var (
		mu      sync.Mutex
		objects = map[string]string{}
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusOK)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		objects[r.URL.Path] = string(body)
		mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	pub, err := NewS3Publisher(config.StorageConfig{
		Enabled:   true,
		Endpoint:  strings.TrimPrefix(server.URL, "http://"),
		Bucket:    "scada",
		AccessKey: "key",
		SecretKey: "secret",
		Prefix:    "/scadapulse/",
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, pub)

	dir := t.TempDir()
	file := filepath.Join(dir, "forecast_2024-01-15_nextday.csv")
	require.NoError(t, os.WriteFile(file, []byte("timestamp,unit_id,power_hat_MW\n"), 0644))

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	keys, err := pub.Publish(context.Background(), day, []string{file})
	require.NoError(t, err)
	assert.Equal(t, []string{"scadapulse/2024-01-15/forecast_2024-01-15_nextday.csv"}, keys)

	mu.Lock()
	body, ok := objects["/scada/scadapulse/2024-01-15/forecast_2024-01-15_nextday.csv"]
	mu.Unlock()
	require.True(t, ok)
	assert.Contains(t, body, "timestamp,unit_id,power_hat_MW")

	_, err = pub.Publish(context.Background(), day, []string{filepath.Join(dir, "missing.csv")})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}
