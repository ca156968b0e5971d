package v1

import "context"

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	ctx        context.Context
	configPath string
	corpusPath string
	index      string
	embedder   Embedder
}

// WithConfig loads settings from a YAML config file. Without it the client
// starts from defaults plus the environment.
func WithConfig(path string) Option {
	return func(c *clientConfig) {
		c.configPath = path
	}
}

// WithCorpus replaces the built-in corpus with a YAML file.
func WithCorpus(path string) Option {
	return func(c *clientConfig) {
		c.corpusPath = path
	}
}

// WithIndex selects the nearest-neighbour index: "flat" or "annoy".
func WithIndex(kind string) Option {
	return func(c *clientConfig) {
		c.index = kind
	}
}

// WithEmbedder uses e instead of the configured embedding backend. The
// client takes ownership and closes it.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithContext bounds the corpus embedding done by New.
func WithContext(ctx context.Context) Option {
	return func(c *clientConfig) {
		c.ctx = ctx
	}
}
