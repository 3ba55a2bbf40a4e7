package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"scadapulse/internal/infrastructure"
	"scadapulse/pkg/contracts/events"
)

// TracerName is the instrumentation scope of pipeline spans.
const TracerName = "scadapulse.pipeline"

// Pipeline runs registered stages in order against one State.
type Pipeline struct {
	registry *Registry
	config   *Config
	tracer   trace.Tracer
	metrics  *infrastructure.PipelineMetrics
	logger   *slog.Logger
}

// NewPipeline creates a pipeline over registry. metrics may be nil.
func NewPipeline(registry *Registry, config *Config, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *Pipeline {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		registry: registry,
		config:   config,
		tracer:   otel.Tracer(TracerName),
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "pipeline")),
	}
}

// Registry returns the stage registry.
func (p *Pipeline) Registry() *Registry { return p.registry }

// Config returns the execution configuration.
func (p *Pipeline) Config() *Config { return p.config }

// Metrics returns the pipeline instruments, possibly nil.
func (p *Pipeline) Metrics() *infrastructure.PipelineMetrics { return p.metrics }

// PendingStages returns one pending snapshot per registered stage.
func (p *Pipeline) PendingStages() []events.StageSnapshot {
	stages := p.registry.List()
	out := make([]events.StageSnapshot, len(stages))
	for i, s := range stages {
		out[i] = events.StageSnapshot{ID: s.ID(), Name: s.Name(), Status: events.StatusPending}
	}
	return out
}

// Execute runs every stage in order. A failed stage stops the run and
// marks the remaining stages skipped. sink may be nil.
func (p *Pipeline) Execute(ctx context.Context, state *State, sink StatusSink) error {
	if sink == nil {
		sink = discardSink{}
	}
	logger := p.logger.With(slog.String("run_id", state.RunID), slog.String("day", state.DayString()))

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", state.RunID),
			attribute.String("run.day", state.DayString()),
			attribute.String("run.mode", state.Mode),
			attribute.StringSlice("run.units", state.Units),
		))
	defer span.End()

	stages := p.registry.List()
	logger.InfoContext(ctx, "Pipeline started", slog.Int("stage_count", len(stages)))
	sink.Update(ctx, func(snap *events.RunSnapshot) {
		snap.Status = events.StatusRunning
	})

	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			cancelErr := NewCancellationError(stage.ID())
			p.skipRemaining(ctx, sink, stages[i:], "run cancelled")
			p.finish(ctx, span, sink, state, events.StatusCancelled, cancelErr)
			return cancelErr
		}

		err := p.executeStage(ctx, state, stage, sink, logger)
		if err == nil {
			continue
		}

		logger.ErrorContext(ctx, "Stage failed",
			slog.String("stage", stage.ID()),
			slog.String("error", err.Error()))
		p.skipRemaining(ctx, sink, stages[i+1:], fmt.Sprintf("previous stage %s failed", stage.ID()))

		status := events.StatusFailed
		if GetErrorType(err) == ErrorTypeCancellation {
			status = events.StatusCancelled
		}
		p.finish(ctx, span, sink, state, status, err)
		return err
	}

	p.finish(ctx, span, sink, state, events.StatusCompleted, nil)
	logger.InfoContext(ctx, "Pipeline completed", slog.Int("artifacts", len(state.Artifacts)))
	return nil
}

// executeStage runs one stage with its timeout and retry policy.
func (p *Pipeline) executeStage(ctx context.Context, state *State, stage Stage, sink StatusSink, logger *slog.Logger) error {
	id := stage.ID()
	timeout := p.config.GetStageTimeout(id)
	retry := p.config.RetryConfig
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.stage."+id,
		trace.WithAttributes(attribute.String("stage.id", id), attribute.String("run.id", state.RunID)))
	defer span.End()

	sink.Update(ctx, func(snap *events.RunSnapshot) {
		snap.CurrentStage = id
		updateStage(snap, id, func(s *events.StageSnapshot) {
			s.Status = events.StatusRunning
			s.Message = "Stage started"
		})
	})

	started := time.Now()
	var err error
	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		err = p.runOnce(ctx, state, stage, timeout)
		if err == nil || IsSkip(err) || !IsRetryable(err) || attempt == retry.MaxAttempts {
			break
		}

		delay := retry.Delay(attempt)
		logger.WarnContext(ctx, "Stage retry",
			slog.String("stage", id),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", retry.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
			continue
		case <-ctx.Done():
			err = NewCancellationError(id)
		}
		break
	}
	duration := time.Since(started)
	metadata := state.Metadata(id)

	switch {
	case err == nil:
		p.metrics.RecordStage(ctx, id, duration, nil)
		logger.InfoContext(ctx, "Stage completed", slog.String("stage", id), slog.Duration("duration", duration))
		sink.Update(ctx, func(snap *events.RunSnapshot) {
			snap.Artifacts = append([]string(nil), state.Artifacts...)
			updateStage(snap, id, func(s *events.StageSnapshot) {
				s.Status = events.StatusCompleted
				s.Message = "Stage completed"
				s.Duration = duration.Round(time.Millisecond).String()
				s.Metadata = metadata
			})
		})
		return nil

	case IsSkip(err):
		reason := skipReason(err)
		p.metrics.RecordStage(ctx, id, duration, nil)
		span.SetAttributes(attribute.String("stage.skipped", reason))
		logger.InfoContext(ctx, "Stage skipped", slog.String("stage", id), slog.String("reason", reason))
		sink.Update(ctx, func(snap *events.RunSnapshot) {
			updateStage(snap, id, func(s *events.StageSnapshot) {
				s.Status = events.StatusSkipped
				s.Message = reason
				s.Metadata = metadata
			})
		})
		return nil

	default:
		p.metrics.RecordStage(ctx, id, duration, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		sink.Update(ctx, func(snap *events.RunSnapshot) {
			updateStage(snap, id, func(s *events.StageSnapshot) {
				s.Status = events.StatusFailed
				s.Message = "Stage failed"
				s.Error = err.Error()
				s.Duration = duration.Round(time.Millisecond).String()
				s.Metadata = metadata
			})
		})
		return err
	}
}

// runOnce executes a single attempt under the stage timeout, converting
// panics and context errors into pipeline errors.
func (p *Pipeline) runOnce(ctx context.Context, state *State, stage Stage, timeout time.Duration) (err error) {
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = NewExecutionError(stage.ID(), fmt.Errorf("panic: %v", r))
		}
	}()

	err = stage.Run(stageCtx, state)
	switch {
	case err == nil, IsSkip(err):
		return err
	case ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(stageCtx.Err(), context.DeadlineExceeded)):
		return NewTimeoutError(stage.ID(), timeout.String())
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return NewCancellationError(stage.ID())
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		if opErr.Stage == "" {
			opErr.Stage = stage.ID()
		}
		return opErr
	}
	return NewExecutionError(stage.ID(), err)
}

func (p *Pipeline) skipRemaining(ctx context.Context, sink StatusSink, stages []Stage, reason string) {
	if len(stages) == 0 {
		return
	}
	sink.Update(ctx, func(snap *events.RunSnapshot) {
		for _, stage := range stages {
			updateStage(snap, stage.ID(), func(s *events.StageSnapshot) {
				if s.Status == events.StatusPending || s.Status == events.StatusRunning {
					s.Status = events.StatusSkipped
					s.Message = reason
				}
			})
		}
	})
}

func (p *Pipeline) finish(ctx context.Context, span trace.Span, sink StatusSink, state *State, status string, err error) {
	sink.Update(ctx, func(snap *events.RunSnapshot) {
		snap.Status = status
		snap.CurrentStage = ""
		snap.Artifacts = append([]string(nil), state.Artifacts...)
		if err != nil {
			snap.Error = err.Error()
			snap.Message = "Run " + status
		} else {
			snap.Message = fmt.Sprintf("Run completed with %d artifacts", len(state.Artifacts))
		}
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func skipReason(err error) string {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Message
	}
	return err.Error()
}

type discardSink struct{}

func (discardSink) Update(context.Context, func(*events.RunSnapshot)) {}
