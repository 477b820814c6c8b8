// Package reembed pre-computes embeddings for stored transactions.
//
// The Warmer walks every transaction in ID order, embeds descriptions in
// batches through a caching embedder and records a checkpoint after each batch
// so that an interrupted run can resume. Batches are retried with exponential
// backoff and progress is written to an io.Writer.
package reembed
