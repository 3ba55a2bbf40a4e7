// Command analyze summarizes a readings CSV into the daily JSON and
// Markdown reports, optionally with XLSX/PDF documents and a narrative.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"scadapulse/internal/app"
	"scadapulse/internal/dataprocessing"
	"scadapulse/internal/narrative"
	"scadapulse/pkg/contracts/domain"
)

type options struct {
	csvPath   string
	units     string
	documents bool
	narrative bool
}

func main() {
	var opts options
	flag.StringVar(&opts.csvPath, "csv", "", "readings CSV (default newest in data/aemo)")
	flag.StringVar(&opts.units, "units", "*", "comma separated unit ids, * for all")
	flag.BoolVar(&opts.documents, "documents", false, "also write the XLSX and PDF reports")
	flag.BoolVar(&opts.narrative, "narrative", false, "write the operator narrative when enabled in config")
	configFile := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile, opts); err != nil {
		slog.Error("analyze failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string, opts options) error {
	cli, err := app.NewCLI(ctx, configFile, "")
	if err != nil {
		return err
	}
	c := cli.Components

	readings, day, err := cli.LoadReadings(opts.csvPath)
	if err != nil {
		return err
	}
	readings = dataprocessing.FilterUnits(readings, dataprocessing.ParseUnitList(opts.units))

	summary := c.Summarizer.SummarizeDay(ctx, readings)
	written, err := c.Exporter.ExportSummary(day, summary)
	if err != nil {
		return err
	}

	var forecast domain.ForecastResult
	if opts.documents || opts.narrative {
		forecast, err = c.Forecaster.Forecast(ctx, readings)
		if err != nil {
			return err
		}
	}

	var text string
	if opts.narrative && c.Narrator != nil {
		text, err = c.Narrator.Narrate(ctx, narrative.Request{Day: day, Summary: summary, Forecast: forecast.Forecast})
		if err != nil {
			cli.Logger.WarnContext(ctx, "narrative unavailable", slog.String("error", err.Error()))
		}
	}

	if opts.documents {
		docs, err := c.Exporter.ExportDocuments(day, summary, forecast, text)
		if err != nil {
			return err
		}
		written = append(written, docs...)
	}

	for _, path := range written {
		fmt.Println(path)
	}
	fmt.Printf("%d units summarized for %s\n", summary.Len(), day.Format(domain.DayLayout))
	return nil
}
