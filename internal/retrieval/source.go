package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"scadapulse/internal/dataprocessing"
	apperrors "scadapulse/internal/errors"
	"scadapulse/pkg/contracts/domain"
)

// FilePrefix starts every Dispatch SCADA file name.
const FilePrefix = "PUBLIC_DISPATCHSCADA_"

// Source yields the readings of one trading day.
type Source interface {
	FetchDay(ctx context.Context, day time.Time) ([]domain.Reading, error)
}

// ArchiveFileName returns the daily archive name for day.
func ArchiveFileName(day time.Time) string {
	return FilePrefix + day.Format("20060102") + ".zip"
}

// currentPattern matches the 5-minute interval files of day in a directory listing.
func currentPattern(day time.Time) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + FilePrefix + day.Format("20060102") + `\d{4}_\d+\.zip`)
}

// NEMWebSource downloads a day from the NEMWeb ARCHIVE and CURRENT folders.
type NEMWebSource struct {
	client  *Client
	parser  *dataprocessing.Parser
	logger  *slog.Logger
	archive string
	current string
	mode    string
	workers int
}

// NewNEMWebSource creates a source using cfg's endpoints and mode.
func NewNEMWebSource(logger *slog.Logger, cfg Config, client *Client, parser *dataprocessing.Parser) *NEMWebSource {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = NewClient(logger, cfg, nil)
	}
	if parser == nil {
		parser = dataprocessing.NewParser(logger, time.UTC)
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	mode := cfg.Mode
	if mode == "" {
		mode = ModeAuto
	}

	return &NEMWebSource{
		client:  client,
		parser:  parser,
		logger:  logger.With(slog.String("component", "nemweb_source")),
		archive: strings.TrimRight(cfg.ArchiveBaseURL, "/"),
		current: strings.TrimRight(cfg.CurrentBaseURL, "/"),
		mode:    mode,
		workers: workers,
	}
}

// WithMode returns a copy of the source using mode.
func (s *NEMWebSource) WithMode(mode string) *NEMWebSource {
	clone := *s
	if mode != "" {
		clone.mode = mode
	}
	return &clone
}

// Mode returns the configured mode.
func (s *NEMWebSource) Mode() string { return s.mode }

// FetchDay retrieves the readings of day. In auto mode the CURRENT folder is
// tried when the archive yields nothing. An empty result is not an error.
func (s *NEMWebSource) FetchDay(ctx context.Context, day time.Time) ([]domain.Reading, error) {
	var (
		readings []domain.Reading
		err      error
	)

	switch s.mode {
	case ModeArchive:
		readings, err = s.fetchArchive(ctx, day)
	case ModeCurrent:
		readings, err = s.fetchCurrent(ctx, day)
	case ModeAuto:
		readings, err = s.fetchArchive(ctx, day)
		if err == nil && len(readings) == 0 {
			s.logger.InfoContext(ctx, "archive empty, falling back to current folder",
				slog.String("day", day.Format(domain.DayLayout)))
			readings, err = s.fetchCurrent(ctx, day)
		}
	default:
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unknown source mode %q", s.mode))
	}
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "day retrieved",
		slog.String("day", day.Format(domain.DayLayout)),
		slog.String("mode", s.mode),
		slog.Int("readings", len(readings)))
	return readings, nil
}

func (s *NEMWebSource) fetchArchive(ctx context.Context, day time.Time) ([]domain.Reading, error) {
	name := ArchiveFileName(day)
	body, err := s.client.Get(ctx, s.archive+"/"+name)
	if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
		s.logger.WarnContext(ctx, "archive file not published", slog.String("file", name))
		return []domain.Reading{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.parser.ParseBytes(ctx, name, body)
}

// CurrentFileNames lists the interval files of day found in the CURRENT folder.
func (s *NEMWebSource) CurrentFileNames(ctx context.Context, day time.Time) ([]string, error) {
	listing, err := s.client.Get(ctx, s.current+"/")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, name := range currentPattern(day).FindAllString(string(listing), -1) {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *NEMWebSource) fetchCurrent(ctx context.Context, day time.Time) ([]domain.Reading, error) {
	names, err := s.CurrentFileNames(ctx, day)
	if err != nil {
		return nil, err
	}

	parts := make([][]domain.Reading, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, name := range names {
		g.Go(func() error {
			body, err := s.client.Get(gctx, s.current+"/"+name)
			if err == nil {
				parts[i], err = s.parser.ParseBytes(gctx, name, body)
			}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.WarnContext(gctx, "skipping interval file",
					slog.String("file", name),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return concat(parts), nil
}

// LocalDirSource stitches Dispatch SCADA zips already present in a directory.
type LocalDirSource struct {
	dir    string
	parser *dataprocessing.Parser
	logger *slog.Logger
}

// NewLocalDirSource creates a source reading zips from dir.
func NewLocalDirSource(logger *slog.Logger, dir string, parser *dataprocessing.Parser) *LocalDirSource {
	if logger == nil {
		logger = slog.Default()
	}
	if parser == nil {
		parser = dataprocessing.NewParser(logger, time.UTC)
	}
	return &LocalDirSource{
		dir:    dir,
		parser: parser,
		logger: logger.With(slog.String("component", "local_source")),
	}
}

// FetchDay stitches the zips whose names carry day.
func (s *LocalDirSource) FetchDay(ctx context.Context, day time.Time) ([]domain.Reading, error) {
	return s.stitch(ctx, FilePrefix+day.Format("20060102")+"*.zip")
}

// All stitches every Dispatch SCADA zip in the directory.
func (s *LocalDirSource) All(ctx context.Context) ([]domain.Reading, error) {
	return s.stitch(ctx, FilePrefix+"*.zip")
}

func (s *LocalDirSource) stitch(ctx context.Context, pattern string) ([]domain.Reading, error) {
	if _, err := os.Stat(s.dir); err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("cannot read directory %s", s.dir), err)
	}
	paths, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return nil, apperrors.NewStorageError("invalid file pattern", err)
	}
	if len(paths) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("%s in %s", pattern, s.dir))
	}
	sort.Strings(paths)

	parts := make([][]domain.Reading, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		readings, err := s.parser.ParseFile(ctx, path)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping zip",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		parts = append(parts, readings)
	}

	s.logger.InfoContext(ctx, "stitched zips",
		slog.String("dir", s.dir),
		slog.Int("files", len(paths)))
	return concat(parts), nil
}

func concat(parts [][]domain.Reading) []domain.Reading {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]domain.Reading, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
