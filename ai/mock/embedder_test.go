package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()

	a, err := m.EmbedText(context.Background(), "coffee")
	require.NoError(t, err)
	b, err := m.EmbedText(context.Background(), "coffee")
	require.NoError(t, err)
	c, err := m.EmbedText(context.Background(), "tea")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, DefaultDimension)

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4)
	assert.Equal(t, 3, m.CallCount())
}

func TestMockEmbedder_FixedVectors(t *testing.T) {
	m := NewMockEmbedderWithVectors(map[string][]float32{"coffee": {1, 0}})
	m.SetVector("tea", []float32{0, 1})

	out, err := m.EmbedTexts(context.Background(), []string{"coffee", "tea"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, out)

	// Returned vectors are copies.
	out[0][0] = 42
	again, err := m.EmbedText(context.Background(), "coffee")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, again)

	assert.Equal(t, 2, m.CallCount())
	assert.Equal(t, 3, m.TextCount())
}

func TestMockEmbedder_Injection(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockEmbedder()
	m.EmbedTextsFunc = func(_ context.Context, _ []string) ([][]float32, error) {
		return nil, boom
	}

	_, err := m.EmbedTexts(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, boom)

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	_, err = m.EmbedTexts(context.Background(), []string{"a"})
	assert.NoError(t, err)
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider().(*MockProvider)
	assert.Same(t, p.GetMockEmbedder(), p.Embedder())
	assert.False(t, p.Closed())
	require.NoError(t, p.Close())
	assert.True(t, p.Closed())
}
