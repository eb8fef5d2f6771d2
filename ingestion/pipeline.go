package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/medassist/ai"
	"github.com/poiesic/medassist/core"
	"github.com/poiesic/medassist/index"
	"github.com/poiesic/medassist/textproc"
)

const leadSentences = 2

// Source fetches raw documents for a search term.
type Source interface {
	Search(ctx context.Context, term string, maxResults int) []core.RawDocument
}

// Pipeline fetches documents from a source, condenses and embeds them,
// and writes them to the vector index. Embedding runs on a worker pool.
type Pipeline struct {
	source     Source
	embedder   ai.Embedder
	index      index.Index
	pool       *ants.Pool
	maxResults int
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithMaxResults caps how many documents are requested from the source
// per ingestion. Default is 10.
func WithMaxResults(max int) Option {
	return func(p *Pipeline) error {
		if max < 1 {
			max = 1
		}
		p.maxResults = max
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(source Source, embedder ai.Embedder, idx index.Index, opts ...Option) (*Pipeline, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		source:     source,
		embedder:   embedder,
		index:      idx,
		pool:       pool,
		maxResults: 10,
		logger:     slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest fetches documents for term and indexes them. Each run writes
// fresh records, so re-ingesting a term accumulates documents rather
// than replacing earlier ones. The first embedding or index error
// fails the whole call; nothing found at the source is not an error.
func (p *Pipeline) Ingest(ctx context.Context, term string) ([]core.Document, error) {
	raw := p.source.Search(ctx, term, p.maxResults)
	if len(raw) == 0 {
		p.logger.Info("no documents found", "term", term)
		return nil, nil
	}

	docs := make([]core.Document, len(raw))
	records := make([]index.Record, len(raw))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := range raw {
		i := i
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			doc := condense(raw[i])
			vector, err := p.embedder.EmbedText(ctx, doc.CombinedText)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("embedding %q: %w", doc.Title, err)
				}
				mu.Unlock()
				return
			}
			docs[i] = doc
			records[i] = index.Record{
				ID:     uuid.NewString(),
				Text:   doc.CombinedText,
				Vector: vector,
				Metadata: map[string]string{
					"title":   doc.Title,
					"summary": doc.Summary,
					"url":     doc.URL,
					"text":    doc.CombinedText,
				},
			}
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	if err := p.index.Upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("indexing %d documents: %w", len(records), err)
	}

	p.logger.Info("ingested documents", "term", term, "count", len(docs))
	return docs, nil
}

// condense normalizes a raw document into the short form that gets
// embedded: the title plus up to two lead sentences of the summary.
func condense(raw core.RawDocument) core.Document {
	title := textproc.Normalize(raw.Title)
	summary := textproc.Normalize(raw.Summary)
	excerpt := strings.Join(textproc.ExtractLeadSentences(summary, leadSentences), " ")
	return core.Document{
		Title:          title,
		Summary:        summary,
		SummaryExcerpt: excerpt,
		URL:            raw.URL,
		CombinedText:   fmt.Sprintf("%s. %s", title, excerpt),
	}
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
