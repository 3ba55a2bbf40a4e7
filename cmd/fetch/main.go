// Command fetch downloads one trading day of Dispatch SCADA data from
// NEMWeb and writes the readings CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scadapulse/internal/app"
	"scadapulse/internal/dataprocessing"
	apperrors "scadapulse/internal/errors"
	"scadapulse/internal/retrieval"
	"scadapulse/pkg/contracts/domain"
)

func main() {
	day := flag.String("day", "", "trading day yyyy-mm-dd (default yesterday)")
	units := flag.String("units", "*", "comma separated unit ids, * for all")
	mode := flag.String("mode", "", "retrieval mode: auto, archive or current (default from config)")
	configFile := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile, *day, *units, *mode); err != nil {
		slog.Error("fetch failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile, dayFlag, unitsFlag, mode string) error {
	cli, err := app.NewCLI(ctx, configFile, "")
	if err != nil {
		return err
	}
	c := cli.Components

	day, err := app.ResolveDay(dayFlag, time.Now(), c.Location)
	if err != nil {
		return err
	}

	source := c.Source
	if nem, ok := source.(*retrieval.NEMWebSource); ok && mode != "" {
		source = nem.WithMode(mode)
	}

	readings, err := source.FetchDay(ctx, day)
	if err != nil {
		return err
	}
	units := dataprocessing.ParseUnitList(unitsFlag)
	readings = dataprocessing.FilterUnits(readings, units)
	if len(readings) == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("readings for %s and units %v", day.Format(domain.DayLayout), units))
	}
	domain.SortReadings(readings)

	path, err := c.Exporter.ExportReadings(day, units, readings)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%d rows\t%d units\n", path, len(readings), len(dataprocessing.UnitsPresent(readings)))
	return nil
}
