package local

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/poiesic/ledgermatch/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"
)

func fakeLoader(loads *atomic.Int32, err error) loader {
	return func(_ *ai.Config) (embeddings.EmbedderClient, error) {
		loads.Add(1)
		if err != nil {
			return nil, err
		}
		return embeddings.EmbedderClientFunc(func(_ context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i := range texts {
				out[i] = []float32{float32(i + 1), 0}
			}
			return out, nil
		}), nil
	}
}

func TestProvider_LoadsOnce(t *testing.T) {
	var loads atomic.Int32
	p, err := newProvider(ai.DefaultConfig(), fakeLoader(&loads, nil))
	require.NoError(t, err)
	assert.Equal(t, int32(0), loads.Load())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Embedder().EmbedText(context.Background(), "coffee")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())

	vectors, err := p.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {2, 0}}, vectors)
	assert.NoError(t, p.Close())
}

func TestProvider_LoadFailureIsSticky(t *testing.T) {
	var loads atomic.Int32
	boom := errors.New("no weights")
	p, err := newProvider(ai.DefaultConfig(), fakeLoader(&loads, boom))
	require.NoError(t, err)

	_, err = p.EmbedText(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	_, err = p.EmbedTexts(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), loads.Load())
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(ai.NewConfig(ai.WithModelsDir("")))
	assert.Error(t, err)
}
