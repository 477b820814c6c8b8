// Package local runs a sentence-transformers embedding model in process.
//
// The model is loaded through langchaingo's cybertron integration, which downloads the
// weights into ModelsDir on first use. Loading is expensive, so a Provider loads the
// model at most once and every caller shares the same read-only handle.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/ledgermatch/ai"
	"github.com/poiesic/ledgermatch/ai/langchain"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/embeddings/cybertron"
)

// loader builds the underlying client. Replaced in tests.
type loader func(config *ai.Config) (embeddings.EmbedderClient, error)

func loadCybertron(config *ai.Config) (embeddings.EmbedderClient, error) {
	return cybertron.NewCybertron(
		cybertron.WithModel(config.Model),
		cybertron.WithModelsDir(config.ModelsDir),
	)
}

// Provider lazily loads a local model and exposes it as an ai.Embedder.
type Provider struct {
	config *ai.Config
	load   loader
	logger *slog.Logger

	once     sync.Once
	embedder *langchain.Embedder
	err      error
}

var (
	_ ai.Embedder = (*Provider)(nil)
	_ ai.Provider = (*Provider)(nil)
)

// NewProvider validates config and returns a provider. The model is not loaded until
// the first embedding request or an explicit call to Load.
func NewProvider(config *ai.Config) (*Provider, error) {
	return newProvider(config, loadCybertron)
}

func newProvider(config *ai.Config, load loader) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Provider{
		config: config,
		load:   load,
		logger: slog.Default().With("component", "local-embedder"),
	}, nil
}

// Load loads the model if it has not been loaded yet. A failed load is not retried.
func (p *Provider) Load() error {
	p.once.Do(func() {
		p.logger.Info("loading embedding model", "model", p.config.Model, "dir", p.config.ModelsDir)
		client, err := p.load(p.config)
		if err != nil {
			p.err = fmt.Errorf("load model %s: %w", p.config.Model, err)
			p.logger.Error("failed to load embedding model", "err", err)
			return
		}
		e, err := embeddings.NewEmbedder(client,
			embeddings.WithStripNewLines(true),
			embeddings.WithBatchSize(p.config.BatchSize),
		)
		if err != nil {
			p.err = err
			return
		}
		p.embedder = langchain.New(e, "local-embedder")
	})
	return p.err
}

// Embedder returns the provider itself; the model loads on first use.
func (p *Provider) Embedder() ai.Embedder {
	return p
}

// EmbedText embeds one text with the local model.
func (p *Provider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := p.Load(); err != nil {
		return nil, err
	}
	return p.embedder.EmbedText(ctx, text)
}

// EmbedTexts embeds texts with the local model.
func (p *Provider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := p.Load(); err != nil {
		return nil, err
	}
	return p.embedder.EmbedTexts(ctx, texts)
}

// Close releases nothing; the model lives as long as the process.
func (p *Provider) Close() error {
	return nil
}
