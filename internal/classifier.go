package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// Classifier maps a free-text reply to a consent Category by nearest
// neighbour over the embedded corpus. It is immutable once built and safe for
// concurrent use.
type Classifier struct {
	corpus   *Corpus
	embedder Embedder
	index    VectorIndex
}

type ClassifierOption func(*classifierConfig)

type classifierConfig struct {
	build        IndexBuilder
	concurrency  int
	batchSize    int
	retries      uint64
	retryBackoff time.Duration
}

func WithIndexBuilder(b IndexBuilder) ClassifierOption {
	return func(c *classifierConfig) {
		if b != nil {
			c.build = b
		}
	}
}

// WithConcurrency bounds how many corpus batches are embedded at once.
func WithConcurrency(n int) ClassifierOption {
	return func(c *classifierConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func WithBatchSize(n int) ClassifierOption {
	return func(c *classifierConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithRetry retries failed corpus batches with exponential backoff while the
// classifier is being built. Classify itself never retries.
func WithRetry(attempts int, base time.Duration) ClassifierOption {
	return func(c *classifierConfig) {
		if attempts >= 0 {
			c.retries = uint64(attempts)
		}
		if base > 0 {
			c.retryBackoff = base
		}
	}
}

func NewClassifier(ctx context.Context, corpus *Corpus, embedder Embedder, opts ...ClassifierOption) (*Classifier, error) {
	if corpus == nil || embedder == nil {
		return nil, fmt.Errorf("%w: classifier needs a corpus and an embedder", ErrConfiguration)
	}

	cfg := classifierConfig{
		build:        BuildFlatIndex,
		concurrency:  4,
		batchSize:    16,
		retries:      3,
		retryBackoff: 500 * time.Millisecond,
	}
	for _, o := range opts {
		o(&cfg)
	}

	examples := corpus.Examples()
	texts := make([]string, len(examples))
	for i, ex := range examples {
		texts[i] = Lower(ex.Text)
	}

	vectors, err := embedAll(ctx, embedder, texts, cfg)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}

	entries := make([]EmbeddedExample, len(examples))
	for i, ex := range examples {
		entries[i] = EmbeddedExample{Vector: vectors[i], Category: ex.Category}
	}

	index, err := cfg.build(entries)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	if d := embedder.Dimension(); d > 0 && d != index.Dimension() {
		return nil, fmt.Errorf("%w: embedder reports dimension %d, corpus vectors have %d", ErrConfiguration, d, index.Dimension())
	}

	return &Classifier{corpus: corpus, embedder: embedder, index: index}, nil
}

// NewClassifierFromIndex assembles a classifier around an index that was
// already built from corpus.
func NewClassifierFromIndex(corpus *Corpus, embedder Embedder, index VectorIndex) (*Classifier, error) {
	if corpus == nil || embedder == nil || index == nil {
		return nil, fmt.Errorf("%w: classifier needs a corpus, an embedder and an index", ErrConfiguration)
	}
	if index.Len() != corpus.Len() {
		return nil, fmt.Errorf("%w: index has %d entries for %d examples", ErrConfiguration, index.Len(), corpus.Len())
	}
	return &Classifier{corpus: corpus, embedder: embedder, index: index}, nil
}

func embedAll(ctx context.Context, embedder Embedder, texts []string, cfg classifierConfig) ([][]float32, error) {
	out := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)

	for start := 0; start < len(texts); start += cfg.batchSize {
		end := min(start+cfg.batchSize, len(texts))

		g.Go(func() error {
			backoff := retry.WithMaxRetries(cfg.retries, retry.NewExponential(cfg.retryBackoff))
			return retry.Do(gctx, backoff, func(ctx context.Context) error {
				vecs, err := embedder.EmbedBatch(ctx, texts[start:end])
				if err != nil {
					if ctx.Err() != nil {
						return fmt.Errorf("%w: %w", ErrEmbeddingService, err)
					}
					return retry.RetryableError(fmt.Errorf("%w: %w", ErrEmbeddingService, err))
				}
				if len(vecs) != end-start {
					return fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingService, len(vecs), end-start)
				}
				copy(out[start:end], vecs)
				return nil
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Classify returns the category of the corpus example nearest to reply.
func (c *Classifier) Classify(ctx context.Context, reply string) (Category, error) {
	m, err := c.Nearest(ctx, reply)
	if err != nil {
		return 0, err
	}
	return m.Category, nil
}

// Nearest is Classify with the matched entry's distance and position.
func (c *Classifier) Nearest(ctx context.Context, reply string) (Match, error) {
	text := Normalize(reply)
	if text == "" {
		return Match{}, fmt.Errorf("%w: reply is empty", ErrInvalidInput)
	}

	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return Match{}, fmt.Errorf("%w: %w", ErrEmbeddingService, err)
	}

	m, err := c.index.Nearest(ctx, vec)
	if err != nil {
		if errors.Is(err, ErrDimensionMismatch) {
			return Match{}, fmt.Errorf("embedder returned an incompatible vector: %w", err)
		}
		return Match{}, fmt.Errorf("nearest: %w", err)
	}

	return m, nil
}

// Example returns the corpus example at a Match position.
func (c *Classifier) Example(pos int) (Example, bool) {
	if pos < 0 || pos >= c.corpus.Len() {
		return Example{}, false
	}
	return c.corpus.examples[pos], true
}

func (c *Classifier) Corpus() *Corpus {
	return c.corpus
}

func (c *Classifier) Len() int {
	return c.index.Len()
}

func (c *Classifier) Dimension() int {
	return c.index.Dimension()
}

func (c *Classifier) Close() error {
	return c.embedder.Close()
}

// NewClassifierFromConfig loads the configured corpus and embedding backend
// and builds a classifier from them. metrics may be nil.
func NewClassifierFromConfig(ctx context.Context, cfg *Config, metrics *Metrics) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	corpus, err := cfg.LoadCorpus()
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	embedder, err := NewEmbedder(ctx, cfg.Embeddings, metrics)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	c, err := NewClassifier(ctx, corpus, embedder, cfg.ClassifierOptions()...)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}
	return c, nil
}
