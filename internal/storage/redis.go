package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"scadapulse/internal/config"
	apperrors "scadapulse/internal/errors"
	"scadapulse/pkg/contracts/events"
)

const (
	runKeyPrefix = "run_status:"
	runIndexKey  = "run_status:index"
)

// RedisStore keeps run snapshots as JSON values with a TTL and indexes them
// by start time in a sorted set.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisClient connects to redis and checks the connection.
func NewRedisClient(ctx context.Context, cfg config.StatusConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, apperrors.NewUnavailableError(fmt.Sprintf("redis connection to %s failed", cfg.RedisAddr), err)
	}
	return client, nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "redis_status_store")),
	}
}

func runKey(runID string) string {
	return runKeyPrefix + runID
}

// Save implements StatusStore.
func (s *RedisStore) Save(ctx context.Context, snap events.RunSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return apperrors.NewStorageError("failed to encode run snapshot", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, runKey(snap.RunID), data, s.ttl)
	pipe.ZAdd(ctx, runIndexKey, redis.Z{Score: float64(snap.StartedAt.UnixNano()), Member: snap.RunID})
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.NewStorageError("failed to save run "+snap.RunID, err)
	}
	return nil
}

// Get implements StatusStore.
func (s *RedisStore) Get(ctx context.Context, runID string) (events.RunSnapshot, error) {
	data, err := s.client.Get(ctx, runKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return events.RunSnapshot{}, apperrors.NewNotFoundError("run " + runID)
	}
	if err != nil {
		return events.RunSnapshot{}, apperrors.NewStorageError("failed to load run "+runID, err)
	}

	var snap events.RunSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return events.RunSnapshot{}, apperrors.NewParsingError("failed to decode run "+runID, err)
	}
	return snap, nil
}

// List implements StatusStore. Index members whose value expired are
// pruned from the index.
func (s *RedisStore) List(ctx context.Context, limit int) ([]events.RunSnapshot, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.client.ZRevRange(ctx, runIndexKey, 0, stop).Result()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list runs", err)
	}

	runs := make([]events.RunSnapshot, 0, len(ids))
	var stale []interface{}
	for _, id := range ids {
		snap, err := s.Get(ctx, id)
		if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		runs = append(runs, snap)
	}

	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, runIndexKey, stale...).Err(); err != nil {
			s.logger.WarnContext(ctx, "Failed to prune run index", slog.String("error", err.Error()))
		}
	}
	return runs, nil
}

// Close implements StatusStore.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// NewStatusStore builds the configured backend.
func NewStatusStore(ctx context.Context, cfg config.StatusConfig, logger *slog.Logger) (StatusStore, error) {
	switch cfg.Backend {
	case "redis":
		client, err := NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, cfg.TTL, logger), nil
	case "memory", "":
		return NewMemoryStore(cfg.TTL), nil
	default:
		return nil, apperrors.NewConfigError("unknown status backend "+cfg.Backend, nil)
	}
}
