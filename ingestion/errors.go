package ingestion

import "errors"

var (
	ErrSourceRequired   = errors.New("document source is required")
	ErrEmbedderRequired = errors.New("embedder is required")
	ErrIndexRequired    = errors.New("vector index is required")
)
