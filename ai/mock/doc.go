// Package mock provides test doubles for the ai package interfaces.
//
// The embedder produces deterministic vectors derived from the input
// text, so similarity-based tests are stable across runs without a
// model server. The chat model records every conversation it receives
// for assertion.
package mock
