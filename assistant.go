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


package medassist

import (
	"context"
	"log/slog"

	"github.com/poiesic/medassist/ai"
	"github.com/poiesic/medassist/ai/openai"
	"github.com/poiesic/medassist/chat"
	"github.com/poiesic/medassist/core"
	"github.com/poiesic/medassist/index"
	"github.com/poiesic/medassist/ingestion"
	"github.com/poiesic/medassist/medline"
	"github.com/poiesic/medassist/storage"
	"github.com/poiesic/medassist/storage/badger"
)

// Assistant bundles the document source, the vector index, the model
// provider, and the conversation store into one retrieval-augmented
// question answering service.
type Assistant struct {
	backend  *badger.Backend
	threads  storage.ThreadRepository
	provider ai.Provider
	index    index.Index
	source   ingestion.Source
	pipeline *ingestion.Pipeline
	chat     *chat.Orchestrator
	logger   *slog.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*assistantOptions)

type assistantOptions struct {
	aiConfig *ai.Config
	index    index.Index
	provider ai.Provider
	source   ingestion.Source
	inMemory bool
}

// WithAIConfig sets the model provider configuration.
func WithAIConfig(cfg *ai.Config) AssistantOption {
	return func(o *assistantOptions) {
		o.aiConfig = cfg
	}
}

// WithIndex injects a vector index, replacing the default. Mainly for
// tests and embedding the assistant in larger systems.
func WithIndex(idx index.Index) AssistantOption {
	return func(o *assistantOptions) {
		o.index = idx
	}
}

// WithProvider injects a model provider, replacing the OpenAI-protocol
// default.
func WithProvider(provider ai.Provider) AssistantOption {
	return func(o *assistantOptions) {
		o.provider = provider
	}
}

// WithSource injects a document source, replacing the MedlinePlus
// default.
func WithSource(source ingestion.Source) AssistantOption {
	return func(o *assistantOptions) {
		o.source = source
	}
}

// WithInMemoryStorage keeps conversation history in memory instead of
// on disk. The filePath argument of New is ignored.
func WithInMemoryStorage() AssistantOption {
	return func(o *assistantOptions) {
		o.inMemory = true
	}
}

// New creates an Assistant with conversation history stored at
// filePath. An index must be provided via WithIndex; constructing the
// production Qdrant index needs a context, so the caller owns it.
func New(filePath string, opts ...AssistantOption) (*Assistant, error) {
	options := &assistantOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.index == nil {
		return nil, chat.ErrIndexRequired
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	threads, err := badger.NewThreadRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			threads.Close()
			backend.Close()
			return nil, err
		}
	}

	source := options.source
	if source == nil {
		source = medline.NewClient()
	}

	pipeline, err := ingestion.NewPipeline(source, provider.Embedder(), options.index)
	if err != nil {
		provider.Close()
		threads.Close()
		backend.Close()
		return nil, err
	}

	orchestrator, err := chat.NewOrchestrator(options.index, provider, threads)
	if err != nil {
		pipeline.Release()
		provider.Close()
		threads.Close()
		backend.Close()
		return nil, err
	}

	return &Assistant{
		backend:  backend,
		threads:  threads,
		provider: provider,
		index:    options.index,
		source:   source,
		pipeline: pipeline,
		chat:     orchestrator,
		logger:   slog.Default(),
	}, nil
}

// IngestResult reports what one ingestion call added to the index.
type IngestResult struct {
	Count     int
	Documents []core.Document
}

// Ingest fetches documents for the term from the source and indexes
// them.
func (a *Assistant) Ingest(ctx context.Context, term string) (*IngestResult, error) {
	docs, err := a.pipeline.Ingest(ctx, term)
	if err != nil {
		return nil, err
	}
	return &IngestResult{Count: len(docs), Documents: docs}, nil
}

// Answer answers a question on a thread. The reply is always fit to
// show the user.
func (a *Assistant) Answer(ctx context.Context, threadID, question string) string {
	return a.chat.Answer(ctx, threadID, question)
}

// AnswerWithMonitor answers a question with per-call monitoring.
func (a *Assistant) AnswerWithMonitor(ctx context.Context, threadID, question string, monitor chat.Monitor) string {
	return a.chat.AnswerWithMonitor(ctx, threadID, question, monitor)
}

// ClearHistory removes the conversation history of a thread.
func (a *Assistant) ClearHistory(ctx context.Context, threadID string) error {
	return a.chat.ClearHistory(ctx, threadID)
}

// Embedder exposes the provider's embedder, for reembedding jobs.
func (a *Assistant) Embedder() ai.Embedder {
	return a.provider.Embedder()
}

// Index exposes the vector index.
func (a *Assistant) Index() index.Index {
	return a.index
}

func (a *Assistant) Close() error {
	a.pipeline.Release()

	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing model provider", "err", err)
	}
	if err := a.threads.Close(); err != nil {
		a.logger.Error("error closing thread repository", "err", err)
		return err
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
