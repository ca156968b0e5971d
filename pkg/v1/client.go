package v1

import (
	"context"
	"fmt"
	"os"

	"github.com/4thel00z/consent/internal"
)

// Client classifies consent replies and detects exit intent. It is safe for
// concurrent use.
type Client struct {
	classifier *internal.Classifier
	dispatch   *internal.DispatchUseCase
}

// New builds the classifier, embedding the whole corpus once.
func New(opts ...Option) (*Client, error) {
	cc := &clientConfig{ctx: context.Background()}
	for _, opt := range opts {
		opt(cc)
	}

	cfg, err := internal.LoadConfig(cc.configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if cc.corpusPath != "" {
		cfg.Corpus.Path = cc.corpusPath
	}
	if cc.index != "" {
		cfg.Index.Backend = cc.index
	}

	var classifier *internal.Classifier
	if cc.embedder != nil {
		classifier, err = newWithEmbedder(cc.ctx, cfg, cc.embedder)
	} else {
		classifier, err = internal.NewClassifierFromConfig(cc.ctx, cfg, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}

	return &Client{
		classifier: classifier,
		dispatch:   internal.NewDispatchUseCase(classifier, nil, nil),
	}, nil
}

func newWithEmbedder(ctx context.Context, cfg *internal.Config, e Embedder) (*internal.Classifier, error) {
	// The embedder replaces the backend, so only the index settings matter.
	cfg.Embeddings.Backend = internal.BackendHash
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	corpus, err := cfg.LoadCorpus()
	if err != nil {
		return nil, err
	}
	return internal.NewClassifier(ctx, corpus, e, cfg.ClassifierOptions()...)
}

// Classify returns the category of reply. Blank replies fail with
// ErrInvalidInput; provider failures wrap ErrEmbeddingService.
func (c *Client) Classify(ctx context.Context, reply string) (Category, error) {
	return c.classifier.Classify(ctx, reply)
}

// WantsToLeave reports whether text expresses an intent to end the
// conversation.
func (c *Client) WantsToLeave(text string) bool {
	return internal.WantsToLeave(text)
}

// Dispatch runs action on text and returns the {action: result} document the
// HTTP endpoint would answer with.
func (c *Client) Dispatch(ctx context.Context, action, text string) (map[string]any, error) {
	out, err := c.dispatch.Execute(ctx, internal.DispatchInput{Action: action, Text: text})
	if err != nil {
		return nil, err
	}
	return out.Body(), nil
}

// Close releases the embedding backend.
func (c *Client) Close() error {
	return c.classifier.Close()
}
