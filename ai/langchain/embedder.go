// Package langchain adapts langchaingo embedders to ai.Embedder.
//
// The openai, ollama and local providers all build a langchaingo
// embeddings.Embedder and hand it to New.
package langchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/ledgermatch/ai"
	"github.com/tmc/langchaingo/embeddings"
)

// ErrEmptyResponse is returned when the backend answers with fewer vectors than requested.
var ErrEmptyResponse = errors.New("embedder returned no vectors")

// Embedder implements ai.Embedder on top of a langchaingo embedder.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// New wraps e. component tags every log line.
func New(e embeddings.Embedder, component string) *Embedder {
	return &Embedder{
		embedder: e,
		logger:   slog.Default().With("component", component),
	}
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	if len(vectors) == 0 || len(vectors[0]) == 0 {
		e.logger.Warn("embedder returned empty result")
		return nil, ErrEmptyResponse
	}

	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d, received %d", ErrEmptyResponse, len(texts), len(vectors))
	}

	return vectors, nil
}
