// Package memory provides an in-process index.Index for tests and
// small local experiments. Similarity is exact cosine over the stored
// vectors.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/poiesic/medassist/index"
)

// Index keeps records in a map guarded by a mutex.
type Index struct {
	mu      sync.RWMutex
	records map[string]index.Record
}

func New() *Index {
	return &Index{records: make(map[string]index.Record)}
}

func (m *Index) Upsert(ctx context.Context, records []index.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		stored := rec
		stored.Vector = append([]float32(nil), rec.Vector...)
		if rec.Metadata != nil {
			stored.Metadata = make(map[string]string, len(rec.Metadata))
			for k, v := range rec.Metadata {
				stored.Metadata[k] = v
			}
		}
		m.records[rec.ID] = stored
	}
	return nil
}

func (m *Index) Query(ctx context.Context, vector []float32, topK int) ([]index.Match, error) {
	if topK <= 0 {
		return nil, index.ErrInvalidTopK
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]index.Match, 0, len(m.records))
	for _, rec := range m.records {
		matches = append(matches, index.Match{
			ID:       rec.ID,
			Score:    cosine(vector, rec.Vector),
			Metadata: rec.Metadata,
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Scroll walks records in ID order starting after offset.
func (m *Index) Scroll(ctx context.Context, offset string, limit int) ([]index.Record, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		if offset == "" || id > offset {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	records := make([]index.Record, len(ids))
	for i, id := range ids {
		records[i] = m.records[id]
	}
	next := ""
	if len(ids) == limit && limit > 0 {
		next = ids[len(ids)-1]
	}
	return records, next, nil
}

func (m *Index) Count(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.records)), nil
}

// Len reports the number of stored records without an error return,
// for test assertions.
func (m *Index) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *Index) Close() error {
	return nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return float32(score)
}

var (
	_ index.Index    = (*Index)(nil)
	_ index.Scroller = (*Index)(nil)
	_ index.Counter  = (*Index)(nil)
)
