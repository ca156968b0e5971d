package internal

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(0)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Oui, bien sûr.")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "Oui, bien sûr.")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, DefaultHashDimension)
	assert.Equal(t, DefaultHashDimension, e.Dimension())
}

func TestHashEmbedderCaseInsensitive(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	a, _ := e.Embed(ctx, "OUI BIEN SÛR")
	b, _ := e.Embed(ctx, "oui bien sûr")
	assert.Equal(t, a, b)
}

func TestHashEmbedderUnitLength(t *testing.T) {
	e := NewHashEmbedder(128)

	vec, err := e.Embed(context.Background(), "je ne suis pas sûr")
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestHashEmbedderNoTokens(t *testing.T) {
	vec, err := NewHashEmbedder(16).Embed(context.Background(), "?!...")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), vec)
}

func TestHashEmbedderBatchMatchesSingle(t *testing.T) {
	e := NewHashEmbedder(32)
	ctx := context.Background()
	texts := []string{"oui", "non merci", "peut-être"}

	batch, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, len(texts))

	for i, text := range texts {
		single, _ := e.Embed(ctx, text)
		assert.Equal(t, single, batch[i], text)
	}
}

func TestHashEmbedderSimilarTextsAreCloser(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()

	base, _ := e.Embed(ctx, "je ne suis pas sûr")
	near, _ := e.Embed(ctx, "je ne suis pas trop sûr")
	far, _ := e.Embed(ctx, "carrément")

	assert.Less(t, squaredL2(base, near), squaredL2(base, far))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"c", "est", "d", "accord"}, tokenize("C'est d’accord !"))
}
