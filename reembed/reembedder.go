// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/medassist/ai"
	"github.com/poiesic/medassist/index"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of records to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder recomputes the vectors of every record in the index,
// typically after an embedding model change. Record IDs and metadata
// are preserved; only the vectors change.
type Reembedder struct {
	index    index.Index
	embedder ai.Embedder
	config   *Config
	progress io.Writer
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(idx index.Index, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Reembedder{
		index:    idx,
		embedder: embedder,
		config:   config,
		progress: progress,
	}
}

// Run executes the reembedding operation. The index must support
// scrolling; the total is reported when it also supports counting.
func (r *Reembedder) Run(ctx context.Context) error {
	scroller, ok := r.index.(index.Scroller)
	if !ok {
		return ErrScrollUnsupported
	}

	total := 0
	if counter, ok := r.index.(index.Counter); ok {
		count, err := counter.Count(ctx)
		if err != nil {
			return fmt.Errorf("counting records: %w", err)
		}
		total = int(count)
		if total == 0 {
			fmt.Fprintf(r.progress, "No records found in index (0 records)\n")
			return nil
		}
		fmt.Fprintf(r.progress, "Starting reembedding of %d records (batch size: %d)\n",
			total, r.config.BatchSize)
	} else {
		fmt.Fprintf(r.progress, "Starting reembedding (batch size: %d)\n", r.config.BatchSize)
	}

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	offset := ""
	for {
		records, next, err := scroller.Scroll(ctx, offset, r.config.BatchSize)
		if err != nil {
			return fmt.Errorf("scrolling index: %w", err)
		}
		if len(records) == 0 {
			break
		}

		if err := r.processBatch(ctx, records); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(records)
		tracker.Update(processed)

		if next == "" {
			break
		}
		offset = next
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d records in %v (%.1f records/sec)\n",
		processed, elapsed.Round(time.Second), float64(processed)/elapsed.Seconds())

	return nil
}

// processBatch re-embeds each record's stored text and writes the
// batch back under the same IDs, retrying transient failures. Vectors
// are cleared first so PrepareRecords recomputes all of them in one
// batch call.
func (r *Reembedder) processBatch(ctx context.Context, records []index.Record) error {
	for i, rec := range records {
		text := rec.Text
		if text == "" {
			text = rec.Metadata["text"]
		}
		if text == "" {
			return fmt.Errorf("%w: %s", ErrMissingText, rec.ID)
		}
		records[i].Text = text
		records[i].Vector = nil
	}

	err := RetryWithBackoff(ctx, func() error {
		_, prepErr := index.PrepareRecords(ctx, r.embedder, records)
		return prepErr
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}

	return RetryWithBackoff(ctx, func() error {
		return r.index.Upsert(ctx, records)
	}, r.config.MaxRetries, r.config.RetryDelay)
}
