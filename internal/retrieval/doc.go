// Package retrieval obtains Dispatch SCADA reports for a trading day.
//
// NEMWebSource downloads the daily archive zip, or the 5-minute interval
// zips of the CURRENT folder when the archive is not yet published.
// LocalDirSource stitches zips already downloaded to disk. Both hand the
// payloads to dataprocessing.Parser, so readings come out in the same
// canonical form whatever the origin.
//
// Client retries 429 and 5xx responses with exponential backoff and paces
// requests with a token bucket. A 404 is a NOT_FOUND AppError.
package retrieval
