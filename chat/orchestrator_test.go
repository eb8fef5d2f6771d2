package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medassist/ai/mock"
	"github.com/poiesic/medassist/core"
	"github.com/poiesic/medassist/index"
	"github.com/poiesic/medassist/index/memory"
	"github.com/poiesic/medassist/storage/badger"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *mock.Provider, *memory.Index) {
	t.Helper()
	idx := memory.New()
	provider := mock.NewProvider()
	repo, backend, err := badger.NewMemoryThreadRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	o, err := NewOrchestrator(idx, provider, repo)
	require.NoError(t, err)
	return o, provider, idx
}

func seedIndex(t *testing.T, idx *memory.Index, provider *mock.Provider, title, text string) {
	t.Helper()
	vector, err := provider.Embedder().EmbedText(context.Background(), text)
	require.NoError(t, err)
	err = idx.Upsert(context.Background(), []index.Record{{
		ID:     "1",
		Text:   text,
		Vector: vector,
		Metadata: map[string]string{
			"title":   title,
			"summary": text,
			"text":    text,
		},
	}})
	require.NoError(t, err)
}

func TestAnswerUsesRetrievedContext(t *testing.T) {
	o, provider, idx := newTestOrchestrator(t)
	seedIndex(t, idx, provider, "Diabetes", "diabetes affects blood sugar.")

	provider.MockChatModel().Reply = "Diabetes affects blood sugar."
	reply := o.Answer(context.Background(), "t1", "what is diabetes?")
	assert.Equal(t, "Diabetes affects blood sugar.", reply)

	calls := provider.MockChatModel().Calls()
	require.Len(t, calls, 1)
	turns := calls[0]
	require.Len(t, turns, 2)

	assert.Equal(t, core.RoleSystem, turns[0].Role)
	assert.Equal(t, systemPrompt, turns[0].Content)

	assert.Equal(t, core.RoleUser, turns[1].Role)
	assert.Contains(t, turns[1].Content, "Context from medical database:")
	assert.Contains(t, turns[1].Content, "Diabetes: diabetes affects blood sugar.")
	assert.Contains(t, turns[1].Content, "Question: what is diabetes?")
}

func TestAnswerEmptyIndexSentinel(t *testing.T) {
	o, provider, _ := newTestOrchestrator(t)

	o.Answer(context.Background(), "t1", "anything?")

	calls := provider.MockChatModel().Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0][1].Content, "No relevant documents found.")
}

func TestAnswerAccumulatesHistory(t *testing.T) {
	o, provider, _ := newTestOrchestrator(t)
	ctx := context.Background()

	o.Answer(ctx, "t1", "first question")
	o.Answer(ctx, "t1", "second question")

	calls := provider.MockChatModel().Calls()
	require.Len(t, calls, 2)

	// First call: system + user.
	assert.Len(t, calls[0], 2)

	// Second call replays the first exchange between system and the
	// new user turn.
	second := calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, core.RoleSystem, second[0].Role)
	assert.Equal(t, core.RoleUser, second[1].Role)
	assert.Contains(t, second[1].Content, "first question")
	assert.Equal(t, core.RoleAssistant, second[2].Role)
	assert.Equal(t, core.RoleUser, second[3].Role)
	assert.Contains(t, second[3].Content, "second question")
}

func TestAnswerThreadsAreIsolated(t *testing.T) {
	o, provider, _ := newTestOrchestrator(t)
	ctx := context.Background()

	o.Answer(ctx, "alice", "alice question")
	o.Answer(ctx, "bob", "bob question")

	calls := provider.MockChatModel().Calls()
	require.Len(t, calls, 2)
	// Bob's call carries no history from Alice.
	assert.Len(t, calls[1], 2)
}

func TestAnswerConcurrentThreads(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	const threads = 4
	const questions = 5

	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			threadID := fmt.Sprintf("thread-%d", id)
			for j := 0; j < questions; j++ {
				reply := o.Answer(ctx, threadID, fmt.Sprintf("question %d", j))
				if strings.HasPrefix(reply, "Sorry,") {
					t.Errorf("unexpected failure reply: %s", reply)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < threads; i++ {
		turns, err := o.threads.GetTurns(ctx, fmt.Sprintf("thread-%d", i))
		require.NoError(t, err)
		// Two turns per answered question, user then assistant.
		require.Len(t, turns, questions*2)
		for j, turn := range turns {
			if j%2 == 0 {
				assert.Equal(t, core.RoleUser, turn.Role)
			} else {
				assert.Equal(t, core.RoleAssistant, turn.Role)
			}
		}
	}
}

func TestAnswerGenerationFailure(t *testing.T) {
	o, provider, _ := newTestOrchestrator(t)
	provider.MockChatModel().GenerateFunc = func(ctx context.Context, turns []core.Turn) (string, error) {
		return "", errors.New("model exploded")
	}

	reply := o.Answer(context.Background(), "t1", "question")
	assert.Contains(t, reply, "Sorry, an error occurred while processing your request")
	assert.Contains(t, reply, "model exploded")

	// A failed answer persists nothing.
	turns, err := o.threads.GetTurns(context.Background(), "t1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAnswerConnectivityFailure(t *testing.T) {
	o, provider, _ := newTestOrchestrator(t)
	provider.MockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("dial tcp 127.0.0.1:11434: connect: connection refused")
	}

	reply := o.Answer(context.Background(), "t1", "question")
	assert.Equal(t, connectivityReply, reply)
}

func TestClearHistory(t *testing.T) {
	o, provider, _ := newTestOrchestrator(t)
	ctx := context.Background()

	o.Answer(ctx, "t1", "question")
	require.NoError(t, o.ClearHistory(ctx, "t1"))

	o.Answer(ctx, "t1", "another question")
	calls := provider.MockChatModel().Calls()
	require.Len(t, calls, 2)
	// History was wiped, so the second call sees no prior turns.
	assert.Len(t, calls[1], 2)
}

type recordingMonitor struct {
	started    bool
	retrieved  int
	generated  int
	finished   string
	failedWith error
}

func (m *recordingMonitor) Start(_, _ string)               { m.started = true }
func (m *recordingMonitor) AfterRetrieval(ms []index.Match) { m.retrieved = len(ms) }
func (m *recordingMonitor) BeforeGeneration(ts []core.Turn) { m.generated = len(ts) }
func (m *recordingMonitor) Finish(reply string)             { m.finished = reply }
func (m *recordingMonitor) Fail(err error)                  { m.failedWith = err }

func TestAnswerWithMonitor(t *testing.T) {
	o, provider, idx := newTestOrchestrator(t)
	seedIndex(t, idx, provider, "Diabetes", "diabetes affects blood sugar.")

	monitor := &recordingMonitor{}
	reply := o.AnswerWithMonitor(context.Background(), "t1", "what is diabetes?", monitor)

	assert.True(t, monitor.started)
	assert.Equal(t, 1, monitor.retrieved)
	assert.Equal(t, 2, monitor.generated)
	assert.Equal(t, reply, monitor.finished)
	assert.NoError(t, monitor.failedWith)
}
