// Package http implements the HTTP handlers of the scadapulse web service.
// Handlers stay thin: they decode and validate the request, call a
// service and render the result. Every error goes through the shared
// ErrorHandler so clients always receive RFC 7807 problem details.
//
// # Routes
//
//	POST   /api/runs                       start a daily run (202)
//	GET    /api/runs                       list runs, newest first
//	GET    /api/runs/{id}                  run snapshot
//	DELETE /api/runs/{id}                  cancel an active run
//	GET    /api/reports/days               days with a report
//	GET    /api/reports/{day}/summary      per-unit summary
//	GET    /api/reports/{day}/units/{unit} one unit's summary
//	GET    /api/reports/{day}/forecast     next-day forecast
//	GET    /api/reports/{day}/alerts       ramp alerts
//	GET    /api/reports/{day}/narrative    operator status text
//	GET    /api/reports/{day}/files/{fmt}  raw document download
//	GET    /api/health                     component health
package http
