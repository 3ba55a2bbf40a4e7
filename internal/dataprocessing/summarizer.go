package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"scadapulse/internal/timeseries"
	"scadapulse/pkg/contracts/domain"
)

// SummarizerConfig holds the thresholds of the daily summary.
type SummarizerConfig struct {
	SampleInterval     time.Duration `yaml:"sample_interval" envconfig:"SAMPLE_INTERVAL"`
	MinOutagePoints    int           `yaml:"min_outage_points" envconfig:"MIN_OUTAGE_POINTS" validate:"min=1"`
	AnomalyWindow      int           `yaml:"anomaly_window" envconfig:"ANOMALY_WINDOW" validate:"min=2"`
	AnomalyThreshold   float64       `yaml:"anomaly_threshold" envconfig:"ANOMALY_THRESHOLD" validate:"gt=0"`
	TrendNoteThreshold float64       `yaml:"trend_note_threshold" envconfig:"TREND_NOTE_THRESHOLD"`
	RampNoteFloor      float64       `yaml:"ramp_note_floor" envconfig:"RAMP_NOTE_FLOOR"`
	RampNoteRangeFrac  float64       `yaml:"ramp_note_range_frac" envconfig:"RAMP_NOTE_RANGE_FRAC"`
	// Workers bounds the number of units summarized concurrently; 0 means GOMAXPROCS.
	Workers int `yaml:"workers" envconfig:"WORKERS"`
}

// DefaultSummarizerConfig returns the stock thresholds for 5-minute telemetry.
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{
		SampleInterval:     domain.SampleInterval,
		MinOutagePoints:    timeseries.DefaultMinZeroRun,
		AnomalyWindow:      timeseries.DefaultAnomalyWindow,
		AnomalyThreshold:   timeseries.DefaultZThreshold,
		TrendNoteThreshold: 5.0,
		RampNoteFloor:      20.0,
		RampNoteRangeFrac:  0.2,
	}
}

// Summarizer produces one DuidSummary per unit and day.
type Summarizer struct {
	logger *slog.Logger
	cfg    SummarizerConfig
}

// NewSummarizer creates a summarizer. Zero-valued thresholds fall back to
// their defaults.
func NewSummarizer(logger *slog.Logger, cfg SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultSummarizerConfig()
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = def.SampleInterval
	}
	if cfg.MinOutagePoints <= 0 {
		cfg.MinOutagePoints = def.MinOutagePoints
	}
	if cfg.AnomalyWindow <= 0 {
		cfg.AnomalyWindow = def.AnomalyWindow
	}
	if cfg.AnomalyThreshold <= 0 {
		cfg.AnomalyThreshold = def.AnomalyThreshold
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	return &Summarizer{
		logger: logger.With(slog.String("component", "summarizer")),
		cfg:    cfg,
	}
}

// SummarizeDay summarizes every unit present in readings. Units are
// independent: a unit that fails is logged and left out, the rest are
// still returned.
func (s *Summarizer) SummarizeDay(ctx context.Context, readings []domain.Reading) domain.DaySummary {
	groups := domain.GroupByUnit(readings)
	s.logger.InfoContext(ctx, "summarizing day",
		slog.Int("readings", len(readings)),
		slog.Int("units", len(groups)))

	var (
		mu      sync.Mutex
		results = make([]domain.DuidSummary, 0, len(groups))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, unit := range domain.SortedUnitIDs(groups) {
		unit, unitReadings := unit, groups[unit]
		g.Go(func() error {
			summary, ok, err := s.safeSummarize(unit, unitReadings)
			if err != nil {
				s.logger.WarnContext(gctx, "skipping unit",
					slog.String("unit_id", unit),
					slog.String("error", err.Error()))
				return nil
			}
			if !ok {
				return nil
			}
			mu.Lock()
			results = append(results, summary)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	day := domain.NewDaySummary(results...)
	s.logger.InfoContext(ctx, "day summarized", slog.Int("units", day.Len()))
	return day
}

func (s *Summarizer) safeSummarize(unit string, readings []domain.Reading) (summary domain.DuidSummary, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("summarize %s: %v", unit, r)
		}
	}()
	summary, ok = s.SummarizeUnit(unit, readings)
	return summary, ok, nil
}

// SummarizeUnit computes the daily summary of one unit. readings may be in
// any order. It reports false when there is nothing to summarize.
func (s *Summarizer) SummarizeUnit(unitID string, readings []domain.Reading) (domain.DuidSummary, bool) {
	if len(readings) == 0 {
		return domain.DuidSummary{}, false
	}

	sorted := make([]domain.Reading, len(readings))
	copy(sorted, readings)
	domain.SortByTime(sorted)

	n := len(sorted)
	power := make([]float64, n)
	minutes := make([]float64, n)
	t0 := sorted[0].Timestamp
	for i, r := range sorted {
		power[i] = r.PowerMW
		minutes[i] = r.Timestamp.Sub(t0).Minutes()
	}

	summary := domain.DuidSummary{
		UnitID: unitID,
		Day:    t0.Format(domain.DayLayout),
		NRows:  n,
		PMin:   timeseries.NanMin(power),
		PMax:   timeseries.NanMax(power),
		PMean:  timeseries.NanMean(power),
	}

	if sum, valid := timeseries.NanSum(power); valid > 0 {
		summary.EnergyMWh = sum * s.cfg.SampleInterval.Minutes() / 60
	} else {
		summary.EnergyMWh = math.NaN()
	}

	zeros, negatives := 0, 0
	for _, p := range power {
		if p == 0 {
			zeros++
		}
		if p < 0 {
			negatives++
		}
	}
	summary.ZeroFrac = float64(zeros) / float64(n)
	summary.NegFrac = float64(negatives) / float64(n)

	ramps := timeseries.AbsDiff(power)
	if rampMax := timeseries.NanMax(ramps); !math.IsNaN(rampMax) {
		summary.RampMax = rampMax
		summary.Ramp95p, _ = timeseries.Percentile(ramps, 95)
	}

	summary.Outages = s.outages(sorted, power)

	diffs := timeseries.Diff(power)
	flags := timeseries.RollingZScoreFlags(diffs, s.cfg.AnomalyWindow,
		timeseries.DefaultMinPeriods(s.cfg.AnomalyWindow), s.cfg.AnomalyThreshold)
	summary.Anomalies = timeseries.CountTrue(flags)

	summary.SlopeMWPerHr = timeseries.LinearSlope(minutes, power) * 60

	threshold := timeseries.DynamicThreshold(power)
	summary.IntradayUpBursts, summary.IntradayDownBursts = timeseries.CountBursts(diffs, threshold)

	summary.DiurnalProfile = diurnalProfile(sorted)
	summary.Notes = s.notes(summary)

	return summary, true
}

func (s *Summarizer) outages(sorted []domain.Reading, power []float64) []domain.Outage {
	runs := timeseries.ZeroRuns(power, s.cfg.MinOutagePoints)
	outages := make([]domain.Outage, 0, len(runs))
	for _, run := range runs {
		outages = append(outages, domain.Outage{
			Start:  sorted[run.Start].Timestamp,
			End:    sorted[run.End].Timestamp,
			Points: run.Len(),
		})
	}
	return outages
}

// diurnalProfile averages power per hour of day, rounded to 3 decimals.
// An hour whose readings are all NaN keeps a NaN mean.
func diurnalProfile(sorted []domain.Reading) []domain.HourMean {
	var (
		sums    [24]float64
		counts  [24]int
		present [24]bool
	)
	for _, r := range sorted {
		h := r.Timestamp.Hour()
		present[h] = true
		if math.IsNaN(r.PowerMW) {
			continue
		}
		sums[h] += r.PowerMW
		counts[h]++
	}

	profile := make([]domain.HourMean, 0, 24)
	for h := 0; h < 24; h++ {
		if !present[h] {
			continue
		}
		mean := math.NaN()
		if counts[h] > 0 {
			mean = round3(sums[h] / float64(counts[h]))
		}
		profile = append(profile, domain.HourMean{Hour: h, MeanMW: mean})
	}
	return profile
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func (s *Summarizer) notes(summary domain.DuidSummary) []string {
	notes := []string{}

	if summary.NegFrac > 0 {
		notes = append(notes, "Negative dispatch observed.")
	}

	rampLimit := s.cfg.RampNoteFloor
	if spread := summary.PMax - summary.PMin; !math.IsNaN(spread) {
		rampLimit = math.Max(s.cfg.RampNoteFloor, s.cfg.RampNoteRangeFrac*spread)
	}
	if summary.RampMax > rampLimit {
		notes = append(notes, fmt.Sprintf("Large ramp detected: %.1f MW/5min.", summary.RampMax))
	}

	if len(summary.Outages) > 0 {
		minMinutes := int(s.cfg.SampleInterval.Minutes()) * s.cfg.MinOutagePoints
		notes = append(notes, fmt.Sprintf("%d outage-like zero segments (≥%d min).", len(summary.Outages), minMinutes))
	}

	if summary.Anomalies > 0 {
		notes = append(notes, fmt.Sprintf("%d spike/step anomalies flagged.", summary.Anomalies))
	}

	if math.Abs(summary.SlopeMWPerHr) > s.cfg.TrendNoteThreshold {
		notes = append(notes, fmt.Sprintf("Monotonic trend: slope %+.1f MW/h.", summary.SlopeMWPerHr))
	}

	return notes
}
