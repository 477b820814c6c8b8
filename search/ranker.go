package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ledgermatch/ai"
	"github.com/poiesic/ledgermatch/core"
	"github.com/poiesic/ledgermatch/rank"
)

const (
	// DefaultThreshold is the minimum normalized similarity an item must exceed.
	DefaultThreshold = 0.3
	// DefaultProviderTimeout bounds each call to the embedder.
	DefaultProviderTimeout = 30 * time.Second
	// DefaultBatchSize is the number of descriptions embedded per provider call.
	DefaultBatchSize = 64
)

// Ranker orders described items by embedding similarity to a query.
type Ranker struct {
	embedder  ai.Embedder
	pool      *ants.Pool
	threshold float64
	timeout   time.Duration
	batchSize int
	precision int
	monitor   SearchMonitor
	logger    *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithThreshold sets the score an item must strictly exceed to be kept.
// Default is 0.3.
func WithThreshold(t float64) Option {
	return func(r *Ranker) error {
		if t < 0 || t > 1 {
			return ErrInvalidThreshold
		}
		r.threshold = t
		return nil
	}
}

// WithProviderTimeout bounds every embedder call.
// Default is 30 seconds.
func WithProviderTimeout(d time.Duration) Option {
	return func(r *Ranker) error {
		if d <= 0 {
			d = DefaultProviderTimeout
		}
		r.timeout = d
		return nil
	}
}

// WithBatchSize sets how many descriptions go into one embedder call.
// Default is 64.
func WithBatchSize(n int) Option {
	return func(r *Ranker) error {
		if n < 1 {
			n = DefaultBatchSize
		}
		r.batchSize = n
		return nil
	}
}

// WithPoolSize sets the number of concurrent embedder calls.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(r *Ranker) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if r.pool != nil {
			r.pool.Release()
		}
		r.pool = pool
		return nil
	}
}

// WithPrecision rounds scores to decimals before ordering. Negative disables rounding.
func WithPrecision(decimals int) Option {
	return func(r *Ranker) error {
		r.precision = decimals
		return nil
	}
}

// WithMonitor sets the monitor used when a call does not supply its own.
func WithMonitor(monitor SearchMonitor) Option {
	return func(r *Ranker) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		r.monitor = monitor
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRanker creates a ranker over embedder. Call Release when done.
func NewRanker(embedder ai.Embedder, opts ...Option) (*Ranker, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	r := &Ranker{
		embedder:  embedder,
		pool:      pool,
		threshold: DefaultThreshold,
		timeout:   DefaultProviderTimeout,
		batchSize: DefaultBatchSize,
		precision: -1,
		monitor:   &noopMonitor{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			r.Release()
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "ranker")
	return r, nil
}

// Threshold returns the configured threshold.
func (r *Ranker) Threshold() float64 {
	return r.threshold
}

// RankBySimilarity ranks items against query. The second return value is the
// number of whitespace-separated tokens in the raw query.
func (r *Ranker) RankBySimilarity(ctx context.Context, query string, items []core.DescribedItem) (core.RankedResult, int, error) {
	return r.RankBySimilarityWithMonitor(ctx, query, items, nil)
}

// RankBySimilarityWithMonitor ranks items against query, reporting each stage to monitor.
// A nil monitor falls back to the ranker's default.
func (r *Ranker) RankBySimilarityWithMonitor(ctx context.Context, query string, items []core.DescribedItem, monitor SearchMonitor) (core.RankedResult, int, error) {
	if strings.TrimSpace(query) == "" || len(items) == 0 {
		return core.EmptyResult(), 0, nil
	}
	if monitor == nil {
		monitor = r.monitor
	}
	tokens := len(strings.Fields(query))
	monitor.Start(query, len(items))

	queryVector, err := r.embedQuery(ctx, query)
	if err != nil {
		monitor.Failed("query", err)
		r.logger.Error("error generating embedding for query", "err", err)
		return core.RankedResult{}, 0, err
	}
	monitor.AfterQueryEmbedding(len(queryVector))

	texts := make([]string, len(items))
	for i := range items {
		texts[i] = items[i].Description
	}
	vectors, err := r.embedItems(ctx, texts, monitor)
	if err != nil {
		monitor.Failed("items", err)
		r.logger.Error("error generating embeddings for items", "items", len(items), "err", err)
		return core.RankedResult{}, 0, err
	}

	scores := make(map[string]float64, len(items))
	for i, item := range items {
		cos, err := Cosine(queryVector, vectors[i])
		if err != nil {
			monitor.Failed("score", err)
			return core.RankedResult{}, 0, fmt.Errorf("item %s: %w", item.ID, err)
		}
		score := Score(cos)
		if prev, seen := scores[item.ID]; !seen || score > prev {
			scores[item.ID] = score
		}
	}

	result := rank.Assemble(scores, rank.WithThreshold(r.threshold), rank.WithPrecision(r.precision))
	monitor.Finish(result)
	r.logger.Debug("ranked items", "candidates", len(items), "matches", result.Count, "tokens", tokens)
	return result, tokens, nil
}

func (r *Ranker) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vector, err := withDeadline(ctx, r.timeout, func(callCtx context.Context) ([]float32, error) {
		return r.embedder.EmbedText(callCtx, query)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: query: %w", core.ErrProviderFailure, err)
	}
	return vector, nil
}

// embedItems embeds texts in batches on the pool. The first failure cancels
// the batches still in flight.
func (r *Ranker) embedItems(ctx context.Context, texts []string, monitor SearchMonitor) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for batch, start := 0, 0; start < len(texts); batch, start = batch+1, start+r.batchSize {
		end := min(start+r.batchSize, len(texts))

		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			if batchCtx.Err() != nil {
				return
			}
			got, err := withDeadline(batchCtx, r.timeout, func(callCtx context.Context) ([][]float32, error) {
				return r.embedder.EmbedTexts(callCtx, texts[start:end])
			})
			if err != nil {
				fail(fmt.Errorf("%w: batch %d: %w", core.ErrProviderFailure, batch, err))
				return
			}
			if len(got) != end-start {
				fail(fmt.Errorf("%w: batch %d: got %d vectors for %d texts", core.ErrProviderFailure, batch, len(got), end-start))
				return
			}
			copy(vectors[start:end], got)
			monitor.AfterBatchEmbedding(batch, end-start)
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

type callResult[T any] struct {
	value T
	err   error
}

// withDeadline runs fn with a context bounded by timeout and returns as soon as
// either fn finishes or the context is done. A provider that ignores its context
// keeps running in the background; its result is discarded.
func withDeadline[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan callResult[T], 1)
	go func() {
		v, err := fn(callCtx)
		done <- callResult[T]{value: v, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-callCtx.Done():
		var zero T
		return zero, fmt.Errorf("provider call abandoned: %w", callCtx.Err())
	}
}

// Release releases the worker pool.
// The ranker should not be used after calling Release.
func (r *Ranker) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}

// IsProviderFailure reports whether err came from the embedding provider.
func IsProviderFailure(err error) bool {
	return errors.Is(err, core.ErrProviderFailure)
}
