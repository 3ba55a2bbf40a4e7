// Command forecast builds the next-day forecast and ramp alert CSVs from a
// readings CSV.
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
)

func main() {
	csvPath := flag.String("csv", "", "readings CSV (default newest in data/aemo)")
	units := flag.String("units", "*", "comma separated unit ids, * for all")
	configFile := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile, *csvPath, *units); err != nil {
		slog.Error("forecast failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile, csvPath, units string) error {
	cli, err := app.NewCLI(ctx, configFile, "")
	if err != nil {
		return err
	}
	c := cli.Components

	readings, day, err := cli.LoadReadings(csvPath)
	if err != nil {
		return err
	}
	readings = dataprocessing.FilterUnits(readings, dataprocessing.ParseUnitList(units))

	result, err := c.Forecaster.Forecast(ctx, readings)
	if err != nil {
		return err
	}
	written, err := c.Exporter.ExportForecast(day, result)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Println(path)
	}
	fmt.Printf("%d forecast points, %d ramp alerts\n", len(result.Forecast), len(result.Alerts))
	return nil
}
