// Command stitch builds a readings CSV from Dispatch SCADA zips already
// downloaded to a local directory.
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
	"scadapulse/internal/files"
	"scadapulse/internal/retrieval"
	"scadapulse/internal/validation"
	"scadapulse/pkg/contracts/domain"
)

func main() {
	dir := flag.String("dir", "", "directory holding PUBLIC_DISPATCHSCADA_*.zip files (default data/zips)")
	day := flag.String("day", "", "only stitch zips of this day yyyy-mm-dd (default all)")
	units := flag.String("units", "*", "comma separated unit ids, * for all")
	configFile := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile, *dir, *day, *units); err != nil {
		slog.Error("stitch failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile, dir, dayFlag, unitsFlag string) error {
	cli, err := app.NewCLI(ctx, configFile, "")
	if err != nil {
		return err
	}
	c := cli.Components
	if dir == "" {
		dir = c.Paths.ZipsDir
	}
	if _, err := validation.NewFileValidator(cli.Logger).ValidateInputDirectory(dir, files.KindZip.Glob); err != nil {
		return err
	}
	source := retrieval.NewLocalDirSource(cli.Logger, dir, c.Parser)

	var readings []domain.Reading
	if dayFlag != "" {
		day, err := app.ResolveDay(dayFlag, time.Now(), c.Location)
		if err != nil {
			return err
		}
		readings, err = source.FetchDay(ctx, day)
		if err != nil {
			return err
		}
	} else {
		readings, err = source.All(ctx)
		if err != nil {
			return err
		}
	}

	units := dataprocessing.ParseUnitList(unitsFlag)
	readings = dataprocessing.FilterUnits(readings, units)
	first, ok := domain.MinTimestamp(readings)
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("readings in %s for units %v", dir, units))
	}
	domain.SortReadings(readings)

	path, err := c.Exporter.ExportReadings(domain.FloorDay(first), units, readings)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%d rows\n", path, len(readings))
	return nil
}
