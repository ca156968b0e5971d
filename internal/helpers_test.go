package internal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var errStubUnavailable = errors.New("stub: service unavailable")

// stubEmbedder returns fixed vectors for known texts and falls back to the
// hash embedder for everything else. It counts calls and can be told to fail.
type stubEmbedder struct {
	dim     int
	vectors map[string][]float32
	hash    *HashEmbedder

	embedCalls atomic.Int64
	batchCalls atomic.Int64

	mu          sync.Mutex
	failEmbed   bool
	failBatches int // fail this many EmbedBatch calls before succeeding
	closed      bool
}

func newStubEmbedder(dim int) *stubEmbedder {
	return &stubEmbedder{
		dim:     dim,
		vectors: make(map[string][]float32),
		hash:    NewHashEmbedder(dim),
	}
}

func (s *stubEmbedder) set(text string, vec []float32) {
	s.vectors[Lower(text)] = vec
}

func (s *stubEmbedder) vector(text string) []float32 {
	if v, ok := s.vectors[Lower(text)]; ok {
		return append([]float32(nil), v...)
	}
	return s.hash.vector(text)
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.embedCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	fail := s.failEmbed
	s.mu.Unlock()
	if fail {
		return nil, errStubUnavailable
	}
	return s.vector(text), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.batchCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.failBatches > 0 {
		s.failBatches--
		s.mu.Unlock()
		return nil, errStubUnavailable
	}
	s.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.vector(t)
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int {
	return s.dim
}

func (s *stubEmbedder) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func mustCorpus(examples ...Example) *Corpus {
	c, err := NewCorpus(examples)
	if err != nil {
		panic(err)
	}
	return c
}
