// Package services holds the read-side logic behind the HTTP handlers:
// report lookups over the data directory and health reporting.
package services
