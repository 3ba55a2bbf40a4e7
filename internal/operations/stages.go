package operations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"scadapulse/internal/config"
	"scadapulse/internal/dataprocessing"
	apperrors "scadapulse/internal/errors"
	"scadapulse/internal/exporter"
	"scadapulse/internal/infrastructure"
	"scadapulse/internal/narrative"
	"scadapulse/internal/retrieval"
	"scadapulse/internal/storage"
	"scadapulse/pkg/contracts/domain"
)

// StageDeps are the collaborators of the daily stages. Narrator and
// Publisher are optional; their stages are only registered when set.
type StageDeps struct {
	Source     retrieval.Source
	Summarizer *dataprocessing.Summarizer
	Forecaster *dataprocessing.Forecaster
	Exporter   *exporter.Exporter
	Narrator   narrative.Narrator
	Publisher  storage.Publisher
	Metrics    *infrastructure.PipelineMetrics
	Logger     *slog.Logger
}

// NewDailyRegistry registers the daily stages in execution order.
func NewDailyRegistry(deps StageDeps) (*Registry, error) {
	if deps.Source == nil || deps.Summarizer == nil || deps.Forecaster == nil || deps.Exporter == nil {
		return nil, fmt.Errorf("source, summarizer, forecaster and exporter are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stages := []Stage{
		&FetchStage{source: deps.Source, exporter: deps.Exporter, metrics: deps.Metrics, logger: logger},
		&SummarizeStage{summarizer: deps.Summarizer, metrics: deps.Metrics},
		&ForecastStage{forecaster: deps.Forecaster, metrics: deps.Metrics},
		&ExportStage{exporter: deps.Exporter},
	}
	if deps.Narrator != nil {
		stages = append(stages, &NarrateStage{narrator: deps.Narrator, exporter: deps.Exporter, logger: logger})
	}
	if deps.Publisher != nil {
		stages = append(stages, &PublishStage{publisher: deps.Publisher})
	}

	registry := NewRegistry()
	for _, s := range stages {
		if err := registry.Register(s); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// FetchStage retrieves the day, applies the unit filter and writes the
// readings CSV.
type FetchStage struct {
	source   retrieval.Source
	exporter *exporter.Exporter
	metrics  *infrastructure.PipelineMetrics
	logger   *slog.Logger
}

// ID implements Stage.
func (s *FetchStage) ID() string { return StageIDFetch }

// Name implements Stage.
func (s *FetchStage) Name() string { return "Fetch SCADA readings" }

// Run implements Stage.
func (s *FetchStage) Run(ctx context.Context, state *State) error {
	source := s.source
	if nw, ok := source.(*retrieval.NEMWebSource); ok && state.Mode != "" {
		source = nw.WithMode(state.Mode)
	}

	readings, err := source.FetchDay(ctx, state.Day)
	if err != nil {
		return err
	}
	if len(readings) == 0 {
		return apperrors.NewNotFoundError("SCADA rows for " + state.DayString())
	}

	fetched := len(readings)
	readings = dataprocessing.FilterUnits(readings, state.Units)
	if len(readings) == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("SCADA rows for units %s on %s",
			strings.Join(state.Units, ","), state.DayString()))
	}
	domain.SortReadings(readings)

	path, err := s.exporter.ExportReadings(state.Day, state.Units, readings)
	if err != nil {
		return err
	}
	state.Readings = readings
	state.AddArtifacts(path)

	s.metrics.RecordReadings(ctx, len(readings))
	state.SetMetadata(s.ID(), "fetched", fetched)
	state.SetMetadata(s.ID(), "kept", len(readings))
	state.SetMetadata(s.ID(), "units", len(dataprocessing.UnitsPresent(readings)))
	return nil
}

// SummarizeStage computes the per-unit daily summary.
type SummarizeStage struct {
	summarizer *dataprocessing.Summarizer
	metrics    *infrastructure.PipelineMetrics
}

// ID implements Stage.
func (s *SummarizeStage) ID() string { return StageIDSummarize }

// Name implements Stage.
func (s *SummarizeStage) Name() string { return "Summarize day" }

// Run implements Stage.
func (s *SummarizeStage) Run(ctx context.Context, state *State) error {
	state.Summary = s.summarizer.SummarizeDay(ctx, state.Readings)
	if err := ctx.Err(); err != nil {
		return err
	}
	s.metrics.RecordSummaries(ctx, state.Summary.Len())

	anomalies := 0
	for _, sum := range state.Summary.Summaries() {
		anomalies += sum.Anomalies
	}
	state.SetMetadata(s.ID(), "units", state.Summary.Len())
	state.SetMetadata(s.ID(), "anomalies", anomalies)
	return nil
}

// ForecastStage produces the next-day forecast and ramp alerts.
type ForecastStage struct {
	forecaster *dataprocessing.Forecaster
	metrics    *infrastructure.PipelineMetrics
}

// ID implements Stage.
func (s *ForecastStage) ID() string { return StageIDForecast }

// Name implements Stage.
func (s *ForecastStage) Name() string { return "Forecast next day" }

// Run implements Stage.
func (s *ForecastStage) Run(ctx context.Context, state *State) error {
	result, err := s.forecaster.Forecast(ctx, state.Readings)
	if err != nil {
		return err
	}
	state.Forecast = result
	s.metrics.RecordForecast(ctx, len(result.Forecast), len(result.Alerts))
	state.SetMetadata(s.ID(), "points", len(result.Forecast))
	state.SetMetadata(s.ID(), "ramp_alerts", len(result.Alerts))
	return nil
}

// ExportStage writes the report and forecast files, plus the XLSX and PDF
// documents when the run asks for them.
type ExportStage struct {
	exporter *exporter.Exporter
}

// ID implements Stage.
func (s *ExportStage) ID() string { return StageIDExport }

// Name implements Stage.
func (s *ExportStage) Name() string { return "Export reports" }

// Run implements Stage.
func (s *ExportStage) Run(ctx context.Context, state *State) error {
	files, err := s.exporter.ExportSummary(state.Day, state.Summary)
	if err != nil {
		return err
	}
	state.AddArtifacts(files...)

	files, err = s.exporter.ExportForecast(state.Day, state.Forecast)
	if err != nil {
		return err
	}
	state.AddArtifacts(files...)

	if state.Documents {
		files, err = s.exporter.ExportDocuments(state.Day, state.Summary, state.Forecast, state.Narrative)
		if err != nil {
			return err
		}
		state.AddArtifacts(files...)
	}
	state.SetMetadata(s.ID(), "files", len(state.Artifacts))
	return nil
}

// NarrateStage asks the narrator for the operator status text. Narrator
// failures skip the stage without failing the run.
type NarrateStage struct {
	narrator narrative.Narrator
	exporter *exporter.Exporter
	logger   *slog.Logger
}

// ID implements Stage.
func (s *NarrateStage) ID() string { return StageIDNarrate }

// Name implements Stage.
func (s *NarrateStage) Name() string { return "Operator narrative" }

// Run implements Stage.
func (s *NarrateStage) Run(ctx context.Context, state *State) error {
	text, err := s.narrator.Narrate(ctx, narrative.Request{
		Day:      state.Day,
		Summary:  state.Summary,
		Forecast: state.Forecast.Forecast,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.WarnContext(ctx, "Narrative unavailable",
			slog.String("run_id", state.RunID),
			slog.String("error", err.Error()))
		return SkipStage(err.Error())
	}
	state.Narrative = text

	if path := s.exporter.Paths().NarrativePath(state.Day); config.FileExists(path) {
		state.AddArtifacts(path)
	}

	if state.Documents {
		pdfPath := s.exporter.Paths().ReportPDFPath(state.Day)
		if err := exporter.WritePDF(pdfPath, state.DayString(), state.Summary, len(state.Forecast.Alerts), text); err != nil {
			return err
		}
	}
	state.SetMetadata(s.ID(), "chars", len(text))
	return nil
}

// PublishStage uploads every artifact of the run.
type PublishStage struct {
	publisher storage.Publisher
}

// ID implements Stage.
func (s *PublishStage) ID() string { return StageIDPublish }

// Name implements Stage.
func (s *PublishStage) Name() string { return "Publish artifacts" }

// Run implements Stage.
func (s *PublishStage) Run(ctx context.Context, state *State) error {
	if len(state.Artifacts) == 0 {
		return SkipStage("no artifacts to publish")
	}
	keys, err := s.publisher.Publish(ctx, state.Day, state.Artifacts)
	state.Published = keys
	if err != nil {
		return err
	}
	state.SetMetadata(s.ID(), "objects", len(keys))
	return nil
}
