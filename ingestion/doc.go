// Package ingestion turns raw source documents into indexed vector
// records. Documents are normalized, cut down to their lead sentences,
// embedded concurrently on a worker pool, and written to the index in
// one batch.
package ingestion
