// Package storage holds the persistence collaborators of the pipeline: run
// status stores (in memory or redis) and the S3 artifact publisher.
package storage
