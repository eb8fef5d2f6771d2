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


// Package ai provides abstractions for the AI services used in medassist.
//
// Two interfaces cover the model surface:
//
//   - Embedder: generates vector embeddings from text
//   - ChatModel: produces an assistant reply for an ordered conversation
//
// Provider aggregates both for convenient initialization and lifecycle
// management. The ingestion and query pipelines depend only on these
// abstractions; concrete implementations live in subpackages:
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//     (Ollama, LocalAI, vLLM, OpenAI itself)
//   - ai/mock: deterministic test doubles
//
// Public constructors in ai/openai return the interface types to prevent
// coupling to implementation details; mock constructors return concrete
// types so tests can reach assertion helpers.
//
// The same Embedder instance must serve both ingestion and querying; the
// two only produce comparable vectors when they share model identity.
package ai
