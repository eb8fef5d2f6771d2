package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medassist/ai/mock"
	"github.com/poiesic/medassist/core"
	"github.com/poiesic/medassist/index/memory"
)

// fakeSource serves canned documents for any term.
type fakeSource struct {
	docs  []core.RawDocument
	calls int
}

func (s *fakeSource) Search(ctx context.Context, term string, maxResults int) []core.RawDocument {
	s.calls++
	if len(s.docs) > maxResults {
		return s.docs[:maxResults]
	}
	return s.docs
}

func newTestPipeline(t *testing.T, source Source, opts ...Option) (*Pipeline, *memory.Index) {
	t.Helper()
	idx := memory.New()
	p, err := NewPipeline(source, mock.NewEmbedder(), idx, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p, idx
}

func TestIngestIndexesDocuments(t *testing.T) {
	source := &fakeSource{docs: []core.RawDocument{
		{
			Title:   "Diabetes",
			URL:     "https://medlineplus.gov/diabetes.html",
			Summary: "Diabetes is a disease. It affects blood sugar. Many people have it.",
		},
		{
			Title:   "Asthma",
			URL:     "https://medlineplus.gov/asthma.html",
			Summary: "Asthma is a chronic lung disease.",
		},
	}}
	p, idx := newTestPipeline(t, source)

	docs, err := p.Ingest(context.Background(), "breathing")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 2, idx.Len())

	// Title is normalized and only the first two sentences survive.
	assert.Equal(t, "diabetes. diabetes is a disease. it affects blood sugar.", docs[0].CombinedText)
	assert.Equal(t, "asthma. asthma is a chronic lung disease.", docs[1].CombinedText)
	assert.Equal(t, "https://medlineplus.gov/asthma.html", docs[1].URL)
	// The indexed record keeps the full normalized summary, not the
	// excerpt that was embedded.
	assert.Equal(t, "diabetes is a disease. it affects blood sugar. many people have it.", docs[0].Summary)

	records, _, err := idx.Scroll(context.Background(), "", 10)
	require.NoError(t, err)
	summaries := make(map[string]bool, len(records))
	for _, rec := range records {
		summaries[rec.Metadata["summary"]] = true
	}
	assert.True(t, summaries["diabetes is a disease. it affects blood sugar. many people have it."])
}

func TestIngestNothingFound(t *testing.T) {
	source := &fakeSource{}
	p, idx := newTestPipeline(t, source)

	docs, err := p.Ingest(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 0, idx.Len())
}

func TestIngestIsAdditive(t *testing.T) {
	source := &fakeSource{docs: []core.RawDocument{
		{Title: "Diabetes", URL: "https://example.org", Summary: "Same document."},
	}}
	p, idx := newTestPipeline(t, source)
	ctx := context.Background()

	_, err := p.Ingest(ctx, "diabetes")
	require.NoError(t, err)
	_, err = p.Ingest(ctx, "diabetes")
	require.NoError(t, err)

	// Fresh IDs per run, so the same document lands twice.
	assert.Equal(t, 2, idx.Len())
}

func TestIngestMaxResults(t *testing.T) {
	source := &fakeSource{docs: []core.RawDocument{
		{Title: "A", Summary: "one"},
		{Title: "B", Summary: "two"},
		{Title: "C", Summary: "three"},
	}}
	p, idx := newTestPipeline(t, source, WithMaxResults(2))

	docs, err := p.Ingest(context.Background(), "letters")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, 2, idx.Len())
}

func TestIngestEmbeddingFailure(t *testing.T) {
	source := &fakeSource{docs: []core.RawDocument{
		{Title: "Diabetes", Summary: "some text"},
	}}
	idx := memory.New()
	embedder := mock.NewEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("model server unavailable")
	}
	p, err := NewPipeline(source, embedder, idx)
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Ingest(context.Background(), "diabetes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model server unavailable")
	assert.Equal(t, 0, idx.Len())
}

func TestNewPipelineValidation(t *testing.T) {
	idx := memory.New()
	embedder := mock.NewEmbedder()
	source := &fakeSource{}

	_, err := NewPipeline(nil, embedder, idx)
	assert.ErrorIs(t, err, ErrSourceRequired)

	_, err = NewPipeline(source, nil, idx)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline(source, embedder, nil)
	assert.ErrorIs(t, err, ErrIndexRequired)
}
