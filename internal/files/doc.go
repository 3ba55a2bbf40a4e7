// Package files finds the dated artifacts in the data directory and
// enforces the retention window on the bulky ones.
//
// Every artifact name carries its trading day: report_2025-03-14.json,
// aemo_2025-03-14_ALL_5min.csv, PUBLIC_DISPATCHSCADA_20250314.zip and so
// on. Discovery parses that day out of the name so callers never depend on
// modification times.
//
//	discovery := files.NewDiscovery(loc)
//	reports, err := discovery.Find(paths.ReportsDir, files.KindReport)
//
//	pruner := files.NewPruner(paths, 30, loc, logger)
//	result, err := pruner.Prune(ctx, time.Now())
package files
