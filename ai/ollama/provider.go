// Package ollama provides an embedding provider backed by the native Ollama API.
package ollama

import (
	"log/slog"

	"github.com/poiesic/ledgermatch/ai"
	"github.com/poiesic/ledgermatch/ai/langchain"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Provider implements ai.Provider using an Ollama server.
type Provider struct {
	embedder *langchain.Embedder
	logger   *slog.Logger
}

// NewProvider creates a provider that embeds through Ollama's /api/embed endpoint.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	return &Provider{
		embedder: embedder,
		logger:   slog.Default().With("component", "ollama-provider"),
	}, nil
}

// NewEmbedder creates an Ollama-backed embedder.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

func newEmbedder(config *ai.Config) (*langchain.Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	llm, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.Host),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(llm,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(config.BatchSize),
	)
	if err != nil {
		return nil, err
	}
	return langchain.New(embedder, "ollama-embedder"), nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (p *Provider) Close() error {
	p.logger.Debug("closing Ollama provider")
	return nil
}
