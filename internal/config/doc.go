// Package config provides centralized configuration management for the
// SCADA pipeline. It loads configuration from several sources, validates it
// and lays out the data directory.
//
// # Configuration Sources
//
// Configuration is assembled in order of increasing precedence:
//
//  1. Default values (Default)
//  2. A YAML file: SCADA_CONFIG_FILE, config.yaml or configs/config.yaml
//  3. A .env file in the working directory (never overrides real variables)
//  4. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern SCADA_<SECTION>_<FIELD>:
//
//	SCADA_SERVER_PORT=8080
//	SCADA_LOGGING_LEVEL=debug
//	SCADA_RETRIEVAL_MODE=archive
//	SCADA_ANALYSIS_FORECAST_ALPHA=0.3
//	SCADA_STATUS_BACKEND=redis
//
// # Path Management
//
// Paths maps a trading day to the file names of every artifact:
//
//	paths := cfg.GetPaths()
//	paths.ReadingsCSVPath(day, []string{"*"}) // data/aemo/aemo_2024-01-15_ALL_5min.csv
//	paths.ReportJSONPath(day)                 // data/reports/report_2024-01-15.json
//	paths.ForecastCSVPath(day)                // data/forecast/forecast_2024-01-15_nextday.csv
//
// # Validation
//
// Load runs go-playground/validator over the struct tags, then the forecast
// parameter check and the timezone lookup. Failures are CONFIG AppErrors.
package config
