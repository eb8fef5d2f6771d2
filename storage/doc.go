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


// Package storage provides the conversation history storage layer.
//
// It defines the ThreadRepository interface that decouples the chat
// orchestrator from the storage backend, plus the binary serialization
// helpers shared by implementations. The badger subpackage holds the
// BadgerDB-backed implementation used in production; tests run it in
// memory via badger.NewMemoryThreadRepository.
//
// Public constructors return interfaces so callers cannot couple to a
// particular backend; internal constructors may return concrete types.
//
// All implementations must be safe for concurrent use. Appends within
// one thread are serialized by the implementation; distinct threads
// never block each other beyond backend-level contention.
package storage
