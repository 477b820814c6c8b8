package metrics

import (
	"github.com/poiesic/ledgermatch/core"
	"github.com/poiesic/ledgermatch/search"
)

// SearchMonitor feeds ranker progress into Prometheus.
type SearchMonitor struct{}

var _ search.SearchMonitor = SearchMonitor{}

func (SearchMonitor) Start(string, int)            {}
func (SearchMonitor) AfterQueryEmbedding(int)      {}
func (SearchMonitor) AfterBatchEmbedding(int, int) { EmbeddingBatches.Inc() }
func (SearchMonitor) Finish(core.RankedResult)     {}

func (SearchMonitor) Failed(stage string, _ error) {
	ProviderErrors.WithLabelValues(stage).Inc()
}
