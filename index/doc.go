// Package index defines the vector index abstraction used for document
// retrieval, along with helpers that prepare records for storage and
// render retrieved matches into model context.
//
// Implementations live in subpackages: qdrant talks to a Qdrant server
// over gRPC, memory keeps everything in process for tests.
package index
