package internal

import "context"

// Embedder maps text to a fixed-dimension vector. Implementations must be
// deterministic for identical input and keep their dimension for the
// lifetime of the process.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension reports the configured dimension, or 0 when it is only known
	// after the first call.
	Dimension() int
	Close() error
}

type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	GenerateObject(ctx context.Context, prompt string, target any) error
}

// Paraphrases is the structured output requested when expanding the corpus.
type Paraphrases struct {
	Phrases []string `json:"phrases"`
}
