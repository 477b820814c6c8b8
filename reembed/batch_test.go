package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/ledgermatch/ai/mock"
	"github.com/poiesic/ledgermatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func describedItems(descriptions ...string) []core.DescribedItem {
	items := make([]core.DescribedItem, len(descriptions))
	for i, d := range descriptions {
		items[i] = core.DescribedItem{ID: fmt.Sprintf("t%d", i), Description: d}
	}
	return items
}

func TestBatchProcessor_Process(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	bp := NewBatchProcessor(embedder, 3, time.Millisecond)

	n, err := bp.Process(context.Background(), describedItems("coffee", "rent", "groceries"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, embedder.CallCount(), "should embed the batch in one call")
	assert.Equal(t, 3, embedder.TextCount())
}

func TestBatchProcessor_SkipsBlankDescriptions(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	bp := NewBatchProcessor(embedder, 3, time.Millisecond)

	n, err := bp.Process(context.Background(), describedItems("coffee", "", "rent"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	bp := NewBatchProcessor(embedder, 3, time.Millisecond)

	n, err := bp.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, embedder.CallCount())
}

func TestBatchProcessor_EmbeddingError(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	boom := errors.New("provider down")
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, boom
	}
	bp := NewBatchProcessor(embedder, 2, time.Millisecond)

	_, err := bp.Process(context.Background(), describedItems("coffee"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, embedder.CallCount(), "should retry up to maxRetries")
}

func TestBatchProcessor_Retry(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	attempts := 0
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("temporary")
		}
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0}
		}
		return out, nil
	}
	bp := NewBatchProcessor(embedder, 3, time.Millisecond)

	n, err := bp.Process(context.Background(), describedItems("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, attempts)
}

func TestBatchProcessor_DimensionMismatchIsNotRetried(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, fmt.Errorf("%w: 3 != 2", core.ErrDimensionMismatch)
	}
	bp := NewBatchProcessor(embedder, 5, time.Millisecond)

	_, err := bp.Process(context.Background(), describedItems("a"))
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}
	bp := NewBatchProcessor(embedder, 1, time.Millisecond)

	_, err := bp.Process(context.Background(), describedItems("a", "b"))
	assert.ErrorContains(t, err, "embedding count mismatch")
}

func TestBatchProcessor_ContextCancellation(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	ctx, cancel := context.WithCancel(context.Background())
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		cancel()
		return nil, errors.New("interrupted")
	}
	bp := NewBatchProcessor(embedder, 5, 10*time.Millisecond)

	_, err := bp.Process(ctx, describedItems("a"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, embedder.CallCount())
}
