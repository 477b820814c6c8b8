package search

import "github.com/poiesic/ledgermatch/core"

// SearchMonitor provides hooks to observe the ranking process.
// Implement this interface to track intermediate steps and results during a search.
// Methods may be called from pool goroutines and must be safe for concurrent use.
type SearchMonitor interface {
	Start(query string, candidates int)
	AfterQueryEmbedding(dimension int)
	AfterBatchEmbedding(batch, size int)
	Failed(stage string, err error)
	Finish(result core.RankedResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)        {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)    {}
func (n *noopMonitor) AfterBatchEmbedding(_, _ int) {}
func (n *noopMonitor) Failed(_ string, _ error)     {}
func (n *noopMonitor) Finish(_ core.RankedResult)   {}
