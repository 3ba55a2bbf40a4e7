// Package exporter writes pipeline artifacts: readings, forecast and ramp
// alert CSV tables, the JSON and Markdown day reports, and XLSX/PDF
// renditions for operators.
//
// CSV timestamps are naive local times in the analysis timezone, formatted
// with TimestampLayout. NaN values are written as empty cells and read back
// as NaN. Forecast and alert tables always carry their header row.
//
// Example usage:
//
//	exp := exporter.NewExporter(cfg.GetPaths(), logger)
//	files, err := exp.ExportForecast(day, result)
package exporter
