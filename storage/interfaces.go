package storage

import (
	"context"

	"github.com/poiesic/medassist/core"
)

// ThreadRepository manages per-thread conversation history.
// Implementations must be thread-safe and support concurrent access
// from multiple goroutines; turns within a single thread are stored in
// append order.
type ThreadRepository interface {
	// GetTurns retrieves all turns of a thread in append order.
	// An unknown thread yields an empty slice, not an error.
	GetTurns(ctx context.Context, threadID string) ([]core.Turn, error)

	// AppendTurns appends turns to a thread atomically. Either all
	// turns are persisted or none are.
	AppendTurns(ctx context.Context, threadID string, turns ...core.Turn) error

	// ClearThread removes all turns of a thread. Clearing an unknown
	// thread is a no-op.
	ClearThread(ctx context.Context, threadID string) error

	// Close closes the storage backend and releases resources.
	Close() error
}
