package match

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ledgermatch/core"
	"github.com/poiesic/ledgermatch/fuzzy"
	"github.com/poiesic/ledgermatch/rank"
	"github.com/poiesic/ledgermatch/textnorm"
)

const defaultChunkSize = 256

// Evaluate scores a single description/name pair with the default ratio.
// It reports the tier that matched, its score and whether any tier matched.
func Evaluate(description, name string) (Tier, float64, bool) {
	return newQuery(description, nil).evaluate(textnorm.Normalize(name))
}

// MatchEntities ranks entities against description on the calling goroutine.
func MatchEntities(description string, entities []core.NamedEntity) core.RankedResult {
	if len(entities) == 0 {
		return core.EmptyResult()
	}
	scores := make(map[string]float64, len(entities))
	scoreChunk(newQuery(description, nil), entities, scores)
	return rank.Assemble(scores)
}

// scoreChunk keeps the best score per entity id in dst.
func scoreChunk(q *query, entities []core.NamedEntity, dst map[string]float64) {
	for _, e := range entities {
		_, score, ok := q.evaluate(textnorm.Normalize(e.Name))
		if !ok {
			continue
		}
		if prev, seen := dst[e.ID]; !seen || score > prev {
			dst[e.ID] = score
		}
	}
}

// Matcher scores large candidate sets concurrently on a worker pool.
type Matcher struct {
	pool      *ants.Pool
	ratio     fuzzy.RatioFunc
	chunkSize int
	precision int
	logger    *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithPoolSize sets the worker pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(m *Matcher) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if m.pool != nil {
			m.pool.Release()
		}
		m.pool = pool
		return nil
	}
}

// WithRatio replaces the ratio used by the fuzzy tiers.
func WithRatio(ratio fuzzy.RatioFunc) Option {
	return func(m *Matcher) error {
		if ratio == nil {
			return ErrRatioRequired
		}
		m.ratio = ratio
		return nil
	}
}

// WithChunkSize sets how many entities one pool task scores.
func WithChunkSize(n int) Option {
	return func(m *Matcher) error {
		if n < 1 {
			n = defaultChunkSize
		}
		m.chunkSize = n
		return nil
	}
}

// WithPrecision rounds scores to decimals before ordering. Negative disables rounding.
func WithPrecision(decimals int) Option {
	return func(m *Matcher) error {
		m.precision = decimals
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewMatcher creates a matcher. Call Release when done.
func NewMatcher(opts ...Option) (*Matcher, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	m := &Matcher{
		pool:      pool,
		ratio:     fuzzy.Ratio,
		chunkSize: defaultChunkSize,
		precision: -1,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			m.Release()
			return nil, err
		}
	}
	m.logger = m.logger.With("component", "matcher")
	return m, nil
}

// Evaluate scores one pair with the matcher's ratio.
func (m *Matcher) Evaluate(description, name string) (Tier, float64, bool) {
	return newQuery(description, m.ratio).evaluate(textnorm.Normalize(name))
}

// Match ranks entities against description. Entity order does not affect the result.
// It only fails if ctx is done or the pool rejects work.
func (m *Matcher) Match(ctx context.Context, description string, entities []core.NamedEntity) (core.RankedResult, error) {
	if len(entities) == 0 {
		return core.EmptyResult(), nil
	}
	if err := ctx.Err(); err != nil {
		return core.RankedResult{}, err
	}
	q := newQuery(description, m.ratio)

	if len(entities) <= m.chunkSize {
		scores := make(map[string]float64, len(entities))
		scoreChunk(q, entities, scores)
		return rank.Assemble(scores, rank.WithPrecision(m.precision)), nil
	}

	chunks := (len(entities) + m.chunkSize - 1) / m.chunkSize
	partials := make([]map[string]float64, chunks)

	var wg sync.WaitGroup
	var submitErr error
	for i := 0; i < chunks; i++ {
		start := i * m.chunkSize
		end := min(start+m.chunkSize, len(entities))
		idx := i

		wg.Add(1)
		err := m.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			part := make(map[string]float64)
			scoreChunk(q, entities[start:end], part)
			partials[idx] = part
		})
		if err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}
	wg.Wait()

	if submitErr != nil {
		m.logger.Error("error submitting match chunk", "err", submitErr)
		return core.RankedResult{}, submitErr
	}
	if err := ctx.Err(); err != nil {
		return core.RankedResult{}, err
	}

	scores := make(map[string]float64)
	for _, part := range partials {
		for id, score := range part {
			if prev, seen := scores[id]; !seen || score > prev {
				scores[id] = score
			}
		}
	}
	m.logger.Debug("matched entities", "candidates", len(entities), "matches", len(scores))
	return rank.Assemble(scores, rank.WithPrecision(m.precision)), nil
}

// Release releases the worker pool.
// The matcher should not be used after calling Release.
func (m *Matcher) Release() {
	if m.pool != nil {
		m.pool.Release()
	}
}
