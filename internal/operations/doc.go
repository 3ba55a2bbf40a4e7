// Package operations runs the daily SCADA pipeline.
//
// A run walks a fixed sequence of stages: fetch, summarize, forecast,
// export and, when configured, narrate and publish. Each stage reads and
// extends a shared State. The Pipeline applies per-stage timeouts, retries
// stages that failed on transient network errors and stops at the first
// failure, marking the remaining stages skipped. Stages may return
// SkipStage to record that they had nothing to do.
//
// Every change of a run is written to a RunSnapshot through a
// StatusTracker, which persists it to the status store and broadcasts it
// to WebSocket clients. The Runner owns active runs and allows one run per
// day at a time; the Scheduler triggers the run for yesterday on a cron
// schedule.
package operations
