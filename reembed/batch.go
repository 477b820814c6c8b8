package reembed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/ledgermatch/ai"
	"github.com/poiesic/ledgermatch/core"
)

// BatchProcessor embeds batches of transaction descriptions.
// Paired with a caching embedder, each processed batch lands in the vector cache.
type BatchProcessor struct {
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the descriptions of items. Items with blank descriptions are skipped.
// It returns the number of descriptions sent to the embedder.
func (bp *BatchProcessor) Process(ctx context.Context, items []core.DescribedItem) (int, error) {
	texts := make([]string, 0, len(items))
	for _, item := range items {
		if item.Description == "" {
			continue
		}
		texts = append(texts, item.Description)
	}
	if len(texts) == 0 {
		return 0, nil
	}

	err := RetryWithBackoff(ctx, func(ctx context.Context) error {
		embeddings, err := bp.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			if errors.Is(err, core.ErrDimensionMismatch) {
				return Permanent(err)
			}
			return err
		}
		if len(embeddings) != len(texts) {
			return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(embeddings))
		}
		return nil
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	return len(texts), nil
}
