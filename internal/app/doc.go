// Package app wires the scadapulse web service together and manages its
// lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration (defaults, YAML, .env, environment)
//  2. Initialize logging and OpenTelemetry
//  3. Build the pipeline components and the daily stage registry
//  4. Create the status store, WebSocket hub, runner and scheduler
//  5. Mount the HTTP routes behind the middleware chain
//  6. Serve until SIGINT/SIGTERM, then shut down in reverse order
//
// The command line tools reuse NewComponents so a run started from the
// CLI and one started over HTTP execute the same stages.
package app
