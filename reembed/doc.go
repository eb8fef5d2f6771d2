// Package reembed recomputes stored vectors with the current embedding
// model. It scrolls the vector index in batches, embeds each record's
// stored text, and writes the vectors back under the original IDs with
// retry and progress reporting.
package reembed
