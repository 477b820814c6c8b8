// Package cache wraps an ai.Embedder with a persistent vector cache.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/ledgermatch/ai"
	"github.com/poiesic/ledgermatch/core"
	"github.com/poiesic/ledgermatch/storage"
)

// Embedder serves vectors from a storage.VectorCache and only asks the wrapped
// embedder for texts it has not seen. Keys include the model name so switching
// models never returns stale vectors.
type Embedder struct {
	next     ai.Embedder
	cache    storage.VectorCache
	model    string
	logger   *slog.Logger
	onLookup func(hit bool)
}

var _ ai.Embedder = (*Embedder)(nil)

// Option configures an Embedder.
type Option func(*Embedder)

// WithLogger sets the logger for cache errors.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Embedder) {
		e.logger = logger
	}
}

// WithOnLookup registers a callback invoked once per text with the lookup outcome.
func WithOnLookup(fn func(hit bool)) Option {
	return func(e *Embedder) {
		e.onLookup = fn
	}
}

// New wraps next with cache.
func New(next ai.Embedder, cache storage.VectorCache, model string, opts ...Option) *Embedder {
	e := &Embedder{
		next:     next,
		cache:    cache,
		model:    model,
		logger:   slog.Default(),
		onLookup: func(bool) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "vector-cache")
	return e
}

// Key returns the cache key for text under model.
func Key(model, text string) core.ID {
	return core.IDFromContent(model + "|" + text)
}

// EmbedText returns the cached vector for text or embeds and stores it.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts resolves every text from the cache where possible and embeds the
// remaining distinct texts in a single call to the wrapped embedder.
// Cache read and write failures are logged and treated as misses.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	if len(texts) == 0 {
		return result, nil
	}

	missing := make(map[string][]int)
	var order []string
	for i, text := range texts {
		if positions, seen := missing[text]; seen {
			missing[text] = append(positions, i)
			e.onLookup(false)
			continue
		}
		vector, ok, err := e.cache.GetVector(ctx, Key(e.model, text))
		if err != nil {
			e.logger.Warn("cache lookup failed", "err", err)
		}
		if ok {
			result[i] = vector
			e.onLookup(true)
			continue
		}
		e.onLookup(false)
		missing[text] = []int{i}
		order = append(order, text)
	}

	if len(order) == 0 {
		return result, nil
	}

	vectors, err := e.next.EmbedTexts(ctx, order)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(order) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(order))
	}

	for j, text := range order {
		for k, i := range missing[text] {
			if k == 0 {
				result[i] = vectors[j]
				continue
			}
			result[i] = slices.Clone(vectors[j])
		}
		if err := e.cache.PutVector(ctx, Key(e.model, text), vectors[j]); err != nil {
			e.logger.Warn("cache store failed", "err", err)
		}
	}
	return result, nil
}
