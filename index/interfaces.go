/*
 * Copyright 2025 Poiesic, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package index

import (
	"context"
	"fmt"
	"strconv"

	"github.com/poiesic/medassist/ai"
	"github.com/poiesic/medassist/core"
)

// Record is a document prepared for indexing. ID must be either a
// decimal numeric string or a UUID string.
type Record struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]string
}

// Match is a single retrieval result ordered by similarity.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]string
}

// Index stores embedded documents and retrieves the nearest ones for a
// query vector.
type Index interface {
	// Upsert writes records to the index. Records sharing an ID with an
	// existing entry replace it; distinct IDs accumulate.
	Upsert(ctx context.Context, records []Record) error

	// Query returns up to topK matches ordered by descending similarity.
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)

	Close() error
}

// Scroller is an optional capability of an Index that can enumerate its
// stored records in batches. A zero-length result signals the end of
// the scan.
type Scroller interface {
	Scroll(ctx context.Context, offset string, limit int) (records []Record, next string, err error)
}

// Counter is an optional capability of an Index that can report how
// many records it holds.
type Counter interface {
	Count(ctx context.Context) (uint64, error)
}

// PrepareRecords embeds the text of each record that is missing a
// vector, in one batch call. Records without an ID get one derived
// from their text, so preparing and upserting the same content twice
// stays idempotent. The text is mirrored into metadata under the
// "text" key so it survives a round trip through the index.
func PrepareRecords(ctx context.Context, embedder ai.Embedder, records []Record) ([]Record, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = strconv.FormatUint(uint64(core.IDFromContent(records[i].Text)), 10)
		}
	}
	var pending []int
	var texts []string
	for i, rec := range records {
		if len(rec.Vector) == 0 {
			pending = append(pending, i)
			texts = append(texts, rec.Text)
		}
	}
	if len(pending) > 0 {
		vectors, err := embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding %d records: %w", len(texts), err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
		}
		for j, i := range pending {
			records[i].Vector = vectors[j]
		}
	}
	for i := range records {
		if records[i].Metadata == nil {
			records[i].Metadata = make(map[string]string, 1)
		}
		if _, ok := records[i].Metadata["text"]; !ok {
			records[i].Metadata["text"] = records[i].Text
		}
	}
	return records, nil
}
