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
	"log/slog"
	"time"

	"github.com/poiesic/ledgermatch/ai"
	"github.com/poiesic/ledgermatch/core"
	"github.com/poiesic/ledgermatch/storage"
)

// WarmerProcessorType identifies the warmer's checkpoint.
const WarmerProcessorType = "cache-warmer"

// Config holds configuration for a warm run.
type Config struct {
	// BatchSize is the number of transactions to embed in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of transactions)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Warmer pre-computes embeddings for every stored transaction so that
// similarity searches are served from the vector cache.
//
// Progress is checkpointed after each batch. An interrupted run resumes after
// the last completed transaction; a completed run clears its checkpoint.
type Warmer struct {
	repo        storage.TransactionRepository
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *TransactionIterator
	logger      *slog.Logger
}

// NewWarmer creates a new warmer.
// embedder should be the caching embedder; warming through an uncached one only spends provider calls.
// checkpoints may be nil, in which case every run starts from the beginning.
// progress: where to write progress output (typically os.Stderr)
func NewWarmer(repo storage.TransactionRepository, checkpoints storage.CheckpointRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Warmer, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Warmer{
		repo:        repo,
		checkpoints: checkpoints,
		config:      config,
		progress:    progress,
		processor:   NewBatchProcessor(embedder, config.MaxRetries, config.RetryDelay),
		iterator:    NewTransactionIterator(repo, config.BatchSize),
		logger:      slog.Default().With("component", "warmer"),
	}, nil
}

// Run embeds every transaction after the stored checkpoint.
// It returns the number of descriptions embedded in this run.
func (w *Warmer) Run(ctx context.Context) (int, error) {
	total, err := w.repo.CountTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(w.progress, "No transactions found in database (0 records)\n")
		return 0, nil
	}

	afterID, err := w.loadCheckpoint(ctx)
	if err != nil {
		return 0, err
	}
	if afterID != "" {
		fmt.Fprintf(w.progress, "Resuming warm-up after transaction %s\n", afterID)
	} else {
		fmt.Fprintf(w.progress, "Starting warm-up of %d transactions (batch size: %d)\n",
			total, w.config.BatchSize)
	}

	tracker := NewProgressTracker(w.progress, "Warming", total, w.config.ReportInterval)
	tracker.Start(0)

	embedded := 0
	err = w.iterator.ForEach(ctx, afterID, func(batch []core.DescribedItem) error {
		n, err := w.processor.Process(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		embedded += n

		if err := w.saveCheckpoint(ctx, batch[len(batch)-1].ID); err != nil {
			return err
		}
		tracker.Increment(len(batch))
		return nil
	})
	if err != nil {
		w.logger.Error("warm-up stopped", "embedded", embedded, "err", err)
		return embedded, err
	}

	tracker.Finish()
	if w.checkpoints != nil {
		if err := w.checkpoints.DeleteCheckpoint(ctx, WarmerProcessorType); err != nil {
			return embedded, fmt.Errorf("failed to clear checkpoint: %w", err)
		}
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(w.progress, "Warm-up complete. Embedded %d descriptions in %v\n",
		embedded, elapsed.Round(time.Millisecond))
	return embedded, nil
}

// Reset clears the checkpoint so the next run starts from the beginning.
func (w *Warmer) Reset(ctx context.Context) error {
	if w.checkpoints == nil {
		return nil
	}
	return w.checkpoints.DeleteCheckpoint(ctx, WarmerProcessorType)
}

func (w *Warmer) loadCheckpoint(ctx context.Context) (string, error) {
	if w.checkpoints == nil {
		return "", nil
	}
	cp, err := w.checkpoints.LoadCheckpoint(ctx, WarmerProcessorType)
	if err != nil {
		return "", fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp == nil {
		return "", nil
	}
	return cp.LastID, nil
}

func (w *Warmer) saveCheckpoint(ctx context.Context, lastID string) error {
	if w.checkpoints == nil {
		return nil
	}
	err := w.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: WarmerProcessorType,
		LastID:        lastID,
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
