package ai

import (
	"context"

	"github.com/poiesic/medassist/core"
)

// Embedder generates vector embeddings from text for semantic similarity
// search. For a fixed model identity the output is deterministic and of
// fixed dimensionality. Implementations must be thread-safe for concurrent
// use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails; there is no
	// degraded fallback for a failed embedding.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel produces assistant replies from ordered conversations.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Generate invokes the language model with the full ordered turn list
	// (system, user, and assistant roles) and returns the text of the single
	// assistant reply.
	Generate(ctx context.Context, turns []core.Turn) (string, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// ChatModel returns the chat completion service.
	ChatModel() ChatModel

	// Close releases resources held by the provider and its services.
	Close() error
}
