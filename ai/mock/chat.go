package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/medassist/core"
)

// ChatModel is a test double for ai.ChatModel.
// It records every conversation it receives so tests can assert on the
// exact message lists handed to the model.
type ChatModel struct {
	// GenerateFunc is called by Generate if set.
	GenerateFunc func(ctx context.Context, turns []core.Turn) (string, error)

	// Reply is returned by the default behavior. When empty, a canned
	// reply naming the call ordinal is returned instead.
	Reply string

	mu    sync.Mutex
	calls [][]core.Turn
}

// NewChatModel creates a mock chat model.
// Returns the concrete type to allow test assertions.
func NewChatModel() *ChatModel {
	return &ChatModel{}
}

// Generate records the conversation and returns the configured reply.
func (m *ChatModel) Generate(ctx context.Context, turns []core.Turn) (string, error) {
	m.mu.Lock()
	recorded := make([]core.Turn, len(turns))
	copy(recorded, turns)
	m.calls = append(m.calls, recorded)
	ordinal := len(m.calls)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, turns)
	}
	if m.Reply != "" {
		return m.Reply, nil
	}
	return fmt.Sprintf("mock reply %d", ordinal), nil
}

// Calls returns a copy of every conversation passed to Generate, in call
// order.
func (m *ChatModel) Calls() [][]core.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]core.Turn, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Generate invocations.
func (m *ChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset clears recorded calls and injected behavior.
func (m *ChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.GenerateFunc = nil
	m.Reply = ""
}
