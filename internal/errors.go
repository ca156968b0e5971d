package internal

import "errors"

var (
	// ErrInvalidInput marks a reply that cannot be classified, such as blank text.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmbeddingService wraps any failure of the embedding provider.
	ErrEmbeddingService = errors.New("embedding service error")
	// ErrDimensionMismatch is returned when a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrConfiguration reports an unusable corpus, index or config value.
	ErrConfiguration = errors.New("configuration error")
	// ErrUnknownAction is returned for an action name outside the supported set.
	ErrUnknownAction = errors.New("unknown action")
)
