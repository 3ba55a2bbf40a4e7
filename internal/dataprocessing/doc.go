// Package dataprocessing turns SCADA banner reports into daily unit
// summaries and next-day forecasts.
//
// # Components
//
//  1. Parser: locates the SETTLEMENTDATE header of a banner report (CSV,
//     zip or xlsx) and extracts canonical readings
//  2. Summarizer: one DuidSummary per unit and day (outages, anomalies,
//     trend, bursts, diurnal profile, notes)
//  3. Forecaster: a mean-reverting 288-slot forecast of the next day plus
//     ramp alerts
//
// Summarizer and Forecaster share the primitives of package timeseries and
// treat units independently: one unit's bad data never aborts another.
//
// # Usage
//
//	parser := dataprocessing.NewParser(logger, loc)
//	readings, err := parser.ParseFile(ctx, "PUBLIC_DISPATCHSCADA_20240115.zip")
//	if err != nil {
//	    return err
//	}
//
//	day := dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig()).
//	    SummarizeDay(ctx, readings)
//
//	result, err := dataprocessing.NewForecaster(logger, domain.DefaultForecastConfig()).
//	    Forecast(ctx, readings)
//
// # Error Handling
//
// Malformed rows are handled row by row: a bad timestamp drops the row and
// a bad value becomes NaN. A report without the header sentinel is an
// empty day, not an error. Only an invalid forecast configuration and
// unreadable files are returned as errors.
package dataprocessing
