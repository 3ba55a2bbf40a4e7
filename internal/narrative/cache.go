package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scadapulse/internal/config"
	apperrors "scadapulse/internal/errors"
)

// FileCache stores one narrative per day on disk and only calls the wrapped
// narrator for days without one. New narratives are capped per calendar
// month.
type FileCache struct {
	inner       Narrator
	paths       *config.Paths
	maxPerMonth int
	logger      *slog.Logger
}

// NewFileCache wraps inner. maxPerMonth <= 0 disables the monthly cap.
func NewFileCache(inner Narrator, paths *config.Paths, maxPerMonth int, logger *slog.Logger) *FileCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileCache{
		inner:       inner,
		paths:       paths,
		maxPerMonth: maxPerMonth,
		logger:      logger.With(slog.String("component", "narrative_cache")),
	}
}

// Cached returns the stored narrative of req.Day, if any.
func (c *FileCache) Cached(req Request) (string, bool) {
	data, err := os.ReadFile(c.paths.NarrativePath(req.Day))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Narrate implements Narrator.
func (c *FileCache) Narrate(ctx context.Context, req Request) (string, error) {
	path := c.paths.NarrativePath(req.Day)
	if text, ok := c.Cached(req); ok {
		c.logger.InfoContext(ctx, "Using cached narrative", slog.String("path", path))
		return text, nil
	}

	if err := c.checkBudget(req); err != nil {
		return "", err
	}

	text, err := c.inner.Narrate(ctx, req)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create reports directory", err)
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("failed to write %s", path), err)
	}
	c.logger.InfoContext(ctx, "Narrative stored", slog.String("path", path))
	return text, nil
}

func (c *FileCache) checkBudget(req Request) error {
	if c.maxPerMonth <= 0 {
		return nil
	}
	matches, err := filepath.Glob(c.paths.NarrativeMonthGlob(req.Day))
	if err != nil {
		return apperrors.NewStorageError("failed to count narratives", err)
	}
	if len(matches) >= c.maxPerMonth {
		return apperrors.NewUnavailableError(
			fmt.Sprintf("narrative budget exhausted: %d of %d this month", len(matches), c.maxPerMonth), nil)
	}
	return nil
}

// New builds the configured narrator chain. It returns nil when narratives
// are disabled.
func New(cfg config.NarrativeConfig, paths *config.Paths, logger *slog.Logger) Narrator {
	if !cfg.Enabled {
		return nil
	}
	var inner Narrator = TemplateNarrator{}
	if cfg.Provider == "chat" {
		inner = NewChatNarrator(cfg, nil, logger)
	}
	return NewFileCache(inner, paths, cfg.MaxPerMonth, logger)
}
