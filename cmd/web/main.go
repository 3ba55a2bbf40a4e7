// Command web serves the scadapulse HTTP API, the live run WebSocket and
// the daily schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"scadapulse/internal/app"
	"scadapulse/internal/config"
	"scadapulse/internal/infrastructure"
	"scadapulse/pkg/contracts"
)

func main() {
	configFile := flag.String("config", "", "path to config.yaml")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	if err := run(*configFile); err != nil {
		slog.Error("web server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(configFile string) error {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFrom(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	application, err := app.NewApplication(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	return application.Run()
}
