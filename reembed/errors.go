package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts indicates retry was configured with a non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrScrollUnsupported indicates the index cannot enumerate its records.
	ErrScrollUnsupported = errors.New("index does not support scrolling")

	// ErrMissingText indicates a stored record carries no source text to re-embed.
	ErrMissingText = errors.New("record has no stored text")
)
