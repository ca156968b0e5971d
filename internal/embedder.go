package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/embeddings/cybertron"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
	BackendLocal  = "local"
	BackendHash   = "hash"
)

const DefaultOpenAIModel = "text-embedding-ada-002"

var _ Embedder = (*LangchainEmbedder)(nil)

// LangchainEmbedder adapts a langchaingo embedder. It serves the openai and
// local (cybertron) backends.
type LangchainEmbedder struct {
	impl      embeddings.Embedder
	backend   string
	model     string
	dimension int
}

func WrapLangchainEmbedder(impl embeddings.Embedder, backend, model string, dimension int) *LangchainEmbedder {
	return &LangchainEmbedder{
		impl:      impl,
		backend:   backend,
		model:     model,
		dimension: dimension,
	}
}

func NewOpenAIEmbedder(cfg EmbeddingsConfig) (*LangchainEmbedder, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	opts := []openai.Option{openai.WithEmbeddingModel(model)}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: openai client: %v", ErrConfiguration, err)
	}

	impl, err := embeddings.NewEmbedder(client, langchainOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("%w: openai embedder: %v", ErrConfiguration, err)
	}

	return WrapLangchainEmbedder(impl, BackendOpenAI, model, cfg.Dimension), nil
}

func NewLocalEmbedder(cfg EmbeddingsConfig) (*LangchainEmbedder, error) {
	var opts []cybertron.Option
	if model := strings.TrimSpace(cfg.Model); model != "" {
		opts = append(opts, cybertron.WithModel(model))
	}
	if cfg.ModelsDir != "" {
		opts = append(opts, cybertron.WithModelsDir(cfg.ModelsDir))
	}

	client, err := cybertron.NewCybertron(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: local embedder: %v", ErrConfiguration, err)
	}

	impl, err := embeddings.NewEmbedder(client, langchainOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("%w: local embedder: %v", ErrConfiguration, err)
	}

	return WrapLangchainEmbedder(impl, BackendLocal, cfg.Model, cfg.Dimension), nil
}

func langchainOptions(cfg EmbeddingsConfig) []embeddings.Option {
	opts := []embeddings.Option{embeddings.WithStripNewLines(true)}
	if cfg.BatchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(cfg.BatchSize))
	}
	return opts
}

func (e *LangchainEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s embed: %w", e.backend, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%s embed: empty vector", e.backend)
	}
	return vec, nil
}

func (e *LangchainEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%s embed batch: %w", e.backend, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%s embed batch: got %d vectors for %d texts", e.backend, len(vecs), len(texts))
	}
	return vecs, nil
}

func (e *LangchainEmbedder) Dimension() int {
	return e.dimension
}

func (e *LangchainEmbedder) Close() error {
	return nil
}

// NewEmbedder builds the configured backend, instrumented with metrics (which
// may be nil) and wrapped in a cache when cache_size is positive. Cache hits
// are not observed as provider calls.
func NewEmbedder(ctx context.Context, cfg EmbeddingsConfig, metrics *Metrics) (Embedder, error) {
	var (
		base Embedder
		err  error
	)

	switch cfg.Backend {
	case BackendOpenAI:
		base, err = NewOpenAIEmbedder(cfg)
	case BackendGemini:
		base, err = NewGeminiEmbedder(ctx, cfg)
	case BackendLocal:
		base, err = NewLocalEmbedder(cfg)
	case BackendHash:
		base = NewHashEmbedder(cfg.Dimension)
	default:
		return nil, fmt.Errorf("%w: unsupported embeddings backend %q", ErrConfiguration, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	base = metrics.Instrument(base, cfg.Backend)

	if cfg.CacheSize > 0 {
		return NewCachedEmbedder(base, cfg.CacheSize)
	}
	return base, nil
}
