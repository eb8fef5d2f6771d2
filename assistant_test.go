package medassist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medassist/ai/mock"
	"github.com/poiesic/medassist/chat"
	"github.com/poiesic/medassist/core"
	"github.com/poiesic/medassist/index/memory"
)

type cannedSource struct {
	docs []core.RawDocument
}

func (s *cannedSource) Search(ctx context.Context, term string, maxResults int) []core.RawDocument {
	if len(s.docs) > maxResults {
		return s.docs[:maxResults]
	}
	return s.docs
}

func newTestAssistant(t *testing.T) (*Assistant, *mock.Provider) {
	t.Helper()
	provider := mock.NewProvider()
	source := &cannedSource{docs: []core.RawDocument{
		{
			Title:   "Diabetes",
			URL:     "https://medlineplus.gov/diabetes.html",
			Summary: "Diabetes is a disease in which blood sugar levels are too high. Over time it can damage your organs.",
		},
	}}

	a, err := New("",
		WithInMemoryStorage(),
		WithIndex(memory.New()),
		WithProvider(provider),
		WithSource(source),
	)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, provider
}

func TestNewRequiresIndex(t *testing.T) {
	_, err := New("", WithInMemoryStorage(), WithProvider(mock.NewProvider()))
	assert.ErrorIs(t, err, chat.ErrIndexRequired)
}

func TestIngestThenAnswer(t *testing.T) {
	a, provider := newTestAssistant(t)
	ctx := context.Background()

	result, err := a.Ingest(ctx, "diabetes")
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "diabetes", result.Documents[0].Title)

	provider.MockChatModel().Reply = "High blood sugar over time."
	reply := a.Answer(ctx, "patient-1", "what does diabetes do?")
	assert.Equal(t, "High blood sugar over time.", reply)

	calls := provider.MockChatModel().Calls()
	require.Len(t, calls, 1)
	// The retrieved document reaches the model inside the user turn.
	assert.Contains(t, calls[0][1].Content, "diabetes:")
}

func TestConversationAccumulatesAcrossAnswers(t *testing.T) {
	a, provider := newTestAssistant(t)
	ctx := context.Background()

	_, err := a.Ingest(ctx, "diabetes")
	require.NoError(t, err)

	a.Answer(ctx, "patient-1", "first question")
	a.Answer(ctx, "patient-1", "second question")

	calls := provider.MockChatModel().Calls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0], 2)
	assert.Len(t, calls[1], 4)
}

func TestClearHistoryResetsThread(t *testing.T) {
	a, provider := newTestAssistant(t)
	ctx := context.Background()

	a.Answer(ctx, "patient-1", "first question")
	require.NoError(t, a.ClearHistory(ctx, "patient-1"))
	a.Answer(ctx, "patient-1", "fresh question")

	calls := provider.MockChatModel().Calls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[1], 2)
}
