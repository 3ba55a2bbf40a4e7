// Package timeseries holds the numerical primitives shared by the daily
// summarizer and the next-day forecaster.
//
// Every function is pure and operates on plain float64 slices so that
// per-unit computations stay side-effect free and can run in parallel.
// NaN marks a missing sample; each routine documents how it treats one.
//
// # Files
//
//   - describe.go: NaN-aware descriptive statistics, differences and percentiles
//   - rolling.go: trailing rolling z-score anomaly flags
//   - runs.go: zero-run (outage) detection
//   - trend.go: least-squares trend slope
//   - bursts.go: dynamic ramp threshold and burst counting
package timeseries
