package internal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(t *testing.T, stub *stubEmbedder, opts ...ClassifierOption) *Classifier {
	t.Helper()
	c, err := NewClassifier(context.Background(), DefaultCorpus(), stub, opts...)
	require.NoError(t, err)
	return c
}

func TestClassifierReferenceReplies(t *testing.T) {
	c := newTestClassifier(t, newStubEmbedder(DefaultHashDimension))
	ctx := context.Background()

	cases := map[string]int{
		"Oui, bien sûr.":      1,
		"Non, merci.":         0,
		"Je ne suis pas sûr.": 2,
	}
	for text, want := range cases {
		cat, err := c.Classify(ctx, text)
		require.NoError(t, err, text)
		assert.Equal(t, want, cat.Code(), text)
	}
}

func TestClassifierUsesNearestCorpusVector(t *testing.T) {
	stub := newStubEmbedder(DefaultHashDimension)
	ctx := context.Background()

	// an unseen reply whose embedding coincides with a corpus example
	target, _ := stub.Embed(ctx, Lower("Non, merci."))
	stub.set("ça ne me dit rien du tout", target)

	c := newTestClassifier(t, stub)

	m, err := c.Nearest(ctx, "Ça ne me dit rien du tout")
	require.NoError(t, err)
	assert.Equal(t, Negative, m.Category)
	assert.Zero(t, m.Distance)

	ex, ok := c.Example(m.Position)
	require.True(t, ok)
	assert.Equal(t, "Non, merci.", ex.Text)
}

func TestClassifierAlwaysReturnsAKnownCategory(t *testing.T) {
	c := newTestClassifier(t, newStubEmbedder(64))
	ctx := context.Background()

	for _, text := range []string{"x", "oui peut-être non", "🙂", "Absolument pas, jamais", "12345"} {
		cat, err := c.Classify(ctx, text)
		require.NoError(t, err, text)
		assert.True(t, cat.Valid(), text)
		assert.Contains(t, []int{0, 1, 2}, cat.Code(), text)
	}
}

func TestClassifierIsIdempotent(t *testing.T) {
	c := newTestClassifier(t, newStubEmbedder(64))
	ctx := context.Background()

	first, err := c.Classify(ctx, "bon bah pourquoi pas")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := c.Classify(ctx, "bon bah pourquoi pas")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestClassifierRejectsBlankInput(t *testing.T) {
	stub := newStubEmbedder(16)
	c := newTestClassifier(t, stub)

	for _, text := range []string{"", "   ", "\t\n "} {
		_, err := c.Classify(context.Background(), text)
		assert.ErrorIs(t, err, ErrInvalidInput, "%q", text)
	}
	assert.Zero(t, stub.embedCalls.Load())
}

func TestClassifierEmbeddingFailure(t *testing.T) {
	stub := newStubEmbedder(16)
	c := newTestClassifier(t, stub)

	stub.mu.Lock()
	stub.failEmbed = true
	stub.mu.Unlock()

	_, err := c.Classify(context.Background(), "oui")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingService)
	assert.ErrorIs(t, err, errStubUnavailable)
	assert.EqualValues(t, 1, stub.embedCalls.Load(), "classify must not retry")
}

func TestClassifierDimensionMismatch(t *testing.T) {
	stub := newStubEmbedder(16)
	c := newTestClassifier(t, stub)
	stub.set("court", []float32{1, 2, 3})

	_, err := c.Classify(context.Background(), "court")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestClassifierTieBreak(t *testing.T) {
	corpus := mustCorpus(
		Example{Text: "a", Category: Negative},
		Example{Text: "b", Category: Affirmative},
		Example{Text: "c", Category: Indeterminate},
	)
	stub := newStubEmbedder(3)
	stub.set("a", []float32{1, 0, 0})
	stub.set("b", []float32{0, 1, 0})
	stub.set("c", []float32{0, 0, 1})
	stub.set("milieu", []float32{1, 1, 1})

	for _, build := range []IndexBuilder{BuildFlatIndex, AnnoyIndexBuilder(AnnoyOptions{Trees: 4, Candidates: 3})} {
		c, err := NewClassifier(context.Background(), corpus, stub, WithIndexBuilder(build))
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			m, err := c.Nearest(context.Background(), "milieu")
			require.NoError(t, err)
			assert.Equal(t, 0, m.Position)
			assert.Equal(t, Negative, m.Category)
		}
	}
}

func TestClassifierBatchesCorpus(t *testing.T) {
	stub := newStubEmbedder(16)
	newTestClassifier(t, stub, WithBatchSize(10), WithConcurrency(2))

	assert.EqualValues(t, 9, stub.batchCalls.Load())
	assert.Zero(t, stub.embedCalls.Load())
}

func TestClassifierRetriesStartupBatches(t *testing.T) {
	t.Run("Should recover from transient failures", func(t *testing.T) {
		stub := newStubEmbedder(16)
		stub.failBatches = 2

		c := newTestClassifier(t, stub, WithBatchSize(100), WithRetry(3, time.Millisecond))

		assert.Equal(t, DefaultCorpus().Len(), c.Len())
		assert.EqualValues(t, 3, stub.batchCalls.Load())
	})

	t.Run("Should give up after the configured attempts", func(t *testing.T) {
		stub := newStubEmbedder(16)
		stub.failBatches = 10

		_, err := NewClassifier(context.Background(), DefaultCorpus(), stub,
			WithBatchSize(100), WithRetry(1, time.Millisecond))

		assert.ErrorIs(t, err, ErrEmbeddingService)
		assert.EqualValues(t, 2, stub.batchCalls.Load())
	})

	t.Run("Should stop when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewClassifier(ctx, DefaultCorpus(), newStubEmbedder(16))
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestClassifierRejectsInconsistentDimension(t *testing.T) {
	stub := newStubEmbedder(16)
	stub.dim = 32

	_, err := NewClassifier(context.Background(), DefaultCorpus(), stub)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNewClassifierFromIndex(t *testing.T) {
	idx, err := NewFlatIndex([]EmbeddedExample{{Vector: []float32{1}, Category: Affirmative}})
	require.NoError(t, err)

	_, err = NewClassifierFromIndex(DefaultCorpus(), newStubEmbedder(1), idx)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewClassifier(context.Background(), nil, newStubEmbedder(1))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNewClassifierFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Embeddings.Backend = BackendHash
	cfg.Embeddings.Dimension = 32
	cfg.Index.Backend = IndexAnnoy

	c, err := NewClassifierFromConfig(context.Background(), cfg, NewMetrics())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 32, c.Dimension())
	assert.Equal(t, 88, c.Len())

	cat, err := c.Classify(context.Background(), "Non, merci.")
	require.NoError(t, err)
	assert.Equal(t, Negative, cat)
}

func TestClassifierConcurrentUse(t *testing.T) {
	c := newTestClassifier(t, newStubEmbedder(64))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				cat, err := c.Classify(context.Background(), "Oui, bien sûr.")
				if err != nil || cat != Affirmative {
					t.Errorf("classify: %v %v", cat, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
