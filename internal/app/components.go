package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"scadapulse/internal/config"
	"scadapulse/internal/dataprocessing"
	"scadapulse/internal/exporter"
	"scadapulse/internal/files"
	"scadapulse/internal/infrastructure"
	"scadapulse/internal/narrative"
	"scadapulse/internal/operations"
	"scadapulse/internal/retrieval"
	"scadapulse/internal/storage"
	"scadapulse/internal/validation"
)

// Components are the pipeline collaborators shared by the web service and
// the command line tools.
type Components struct {
	Config     *config.Config
	Paths      *config.Paths
	Location   *time.Location
	Parser     *dataprocessing.Parser
	Source     retrieval.Source
	Summarizer *dataprocessing.Summarizer
	Forecaster *dataprocessing.Forecaster
	Exporter   *exporter.Exporter
	Narrator   narrative.Narrator
	Publisher  storage.Publisher
	Metrics    *infrastructure.PipelineMetrics
	Logger     *slog.Logger
}

// NewComponents builds the collaborators described by cfg. When inputDir
// is set readings come from local files instead of NEMWeb.
func NewComponents(ctx context.Context, cfg *config.Config, inputDir string, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Analysis.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	paths := cfg.GetPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	parser := dataprocessing.NewParser(logger, loc)
	var source retrieval.Source
	if inputDir != "" {
		if _, err := validation.NewFileValidator(logger).ValidateInputDirectory(inputDir, files.KindZip.Glob); err != nil {
			return nil, err
		}
		source = retrieval.NewLocalDirSource(logger, inputDir, parser)
	} else {
		client := retrieval.NewClient(logger, cfg.Retrieval, &http.Client{Timeout: cfg.Retrieval.Timeout})
		source = retrieval.NewNEMWebSource(logger, cfg.Retrieval, client, parser)
	}

	c := &Components{
		Config:     cfg,
		Paths:      paths,
		Location:   loc,
		Parser:     parser,
		Source:     source,
		Summarizer: dataprocessing.NewSummarizer(logger, cfg.Analysis.Summary),
		Forecaster: dataprocessing.NewForecaster(logger, cfg.Analysis.Forecast),
		Exporter:   exporter.NewExporter(paths, logger),
		Narrator:   narrative.New(cfg.Narrative, paths, logger),
		Metrics:    metrics,
		Logger:     logger,
	}

	publisher, err := storage.NewS3Publisher(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	if publisher != nil {
		if err := publisher.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		c.Publisher = publisher
	}
	return c, nil
}

// Registry returns the daily stages wired to the components.
func (c *Components) Registry() (*operations.Registry, error) {
	return operations.NewDailyRegistry(operations.StageDeps{
		Source:     c.Source,
		Summarizer: c.Summarizer,
		Forecaster: c.Forecaster,
		Exporter:   c.Exporter,
		Narrator:   c.Narrator,
		Publisher:  c.Publisher,
		Metrics:    c.Metrics,
		Logger:     c.Logger,
	})
}

// Pipeline returns a pipeline over the daily stages.
func (c *Components) Pipeline() (*operations.Pipeline, error) {
	registry, err := c.Registry()
	if err != nil {
		return nil, err
	}
	return operations.NewPipeline(registry, operations.NewConfig(), c.Metrics, c.Logger), nil
}
