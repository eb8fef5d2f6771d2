package index

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medassist/ai/mock"
)

func TestFormatContextEmpty(t *testing.T) {
	assert.Equal(t, "", FormatContext(nil))
	assert.Equal(t, "", FormatContext([]Match{}))
}

func TestFormatContextLines(t *testing.T) {
	matches := []Match{
		{ID: "1", Score: 0.91, Metadata: map[string]string{
			"title":   "Diabetes",
			"summary": "A1C is a blood test.",
		}},
		{ID: "2", Score: 0.5, Metadata: map[string]string{
			"title":   "Asthma",
			"summary": "A chronic lung disease.",
		}},
	}
	got := FormatContext(matches)
	want := "Diabetes: A1C is a blood test. (score: 0.91)\n\nAsthma: A chronic lung disease. (score: 0.50)"
	assert.Equal(t, want, got)
}

func TestFormatContextFallbacks(t *testing.T) {
	// Records prepared by PrepareRecords carry only a "text" key, so
	// both title and summary fall back to it.
	matches := []Match{
		{ID: "1", Score: 0.25, Metadata: map[string]string{"text": "stored text"}},
	}
	got := FormatContext(matches)
	assert.Equal(t, "stored text: stored text (score: 0.25)", got)

	bare := FormatContext([]Match{{ID: "2", Score: 0.1}})
	assert.True(t, strings.HasPrefix(bare, "untitled: "), bare)
}

func TestPrepareRecordsEmbedsMissingVectors(t *testing.T) {
	embedder := mock.NewEmbedder()
	records := []Record{
		{ID: "1", Text: "first"},
		{ID: "2", Text: "second", Vector: []float32{1, 2, 3}},
		{ID: "3", Text: "third"},
	}

	out, err := PrepareRecords(context.Background(), embedder, records)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Len(t, out[0].Vector, mock.DefaultDimensions)
	assert.Equal(t, []float32{1, 2, 3}, out[1].Vector)
	assert.Len(t, out[2].Vector, mock.DefaultDimensions)

	for _, rec := range out {
		assert.Equal(t, rec.Text, rec.Metadata["text"])
	}
}

func TestPrepareRecordsRequiresEmbedder(t *testing.T) {
	_, err := PrepareRecords(context.Background(), nil, []Record{{ID: "1", Text: "x"}})
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestPrepareRecordsContentHashIDs(t *testing.T) {
	embedder := mock.NewEmbedder()

	first, err := PrepareRecords(context.Background(), embedder, []Record{{Text: "same content"}})
	require.NoError(t, err)
	second, err := PrepareRecords(context.Background(), embedder, []Record{{Text: "same content"}})
	require.NoError(t, err)

	// The same text derives the same ID, so a re-upsert replaces
	// rather than duplicates.
	require.NotEmpty(t, first[0].ID)
	assert.Equal(t, first[0].ID, second[0].ID)

	other, err := PrepareRecords(context.Background(), embedder, []Record{{Text: "different content"}})
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ID, other[0].ID)
}

func TestPrepareRecordsKeepsExistingTextMetadata(t *testing.T) {
	embedder := mock.NewEmbedder()
	records := []Record{
		{ID: "1", Text: "full text", Metadata: map[string]string{"text": "already set"}},
	}
	out, err := PrepareRecords(context.Background(), embedder, records)
	require.NoError(t, err)
	assert.Equal(t, "already set", out[0].Metadata["text"])
}
