// Command discover lists the most frequent units of a day so operators can
// pick a unit filter.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"scadapulse/internal/app"
	"scadapulse/internal/dataprocessing"
	"scadapulse/internal/retrieval"
	"scadapulse/pkg/contracts/domain"
)

func main() {
	day := flag.String("day", "", "trading day yyyy-mm-dd (default yesterday)")
	csvPath := flag.String("csv", "", "count units in this readings CSV instead of fetching")
	mode := flag.String("mode", "", "retrieval mode: auto, archive or current (default from config)")
	top := flag.Int("top", 20, "number of units to list, 0 for all")
	configFile := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile, *day, *csvPath, *mode, *top); err != nil {
		slog.Error("discover failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile, dayFlag, csvPath, mode string, top int) error {
	cli, err := app.NewCLI(ctx, configFile, "")
	if err != nil {
		return err
	}

	var readings []domain.Reading
	if csvPath != "" {
		readings, _, err = cli.LoadReadings(csvPath)
	} else {
		var day time.Time
		day, err = app.ResolveDay(dayFlag, time.Now(), cli.Components.Location)
		if err != nil {
			return err
		}
		source := cli.Components.Source
		if nem, ok := source.(*retrieval.NEMWebSource); ok && mode != "" {
			source = nem.WithMode(mode)
		}
		readings, err = source.FetchDay(ctx, day)
	}
	if err != nil {
		return err
	}

	return printUnits(os.Stdout, dataprocessing.DiscoverUnits(readings, top))
}

func printUnits(w io.Writer, counts []dataprocessing.UnitCount) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tREADINGS")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", c.UnitID, c.Count)
	}
	return tw.Flush()
}
