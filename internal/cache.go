package internal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

var _ Embedder = (*CachedEmbedder)(nil)

// CachedEmbedder memoises vectors by text. Embedders are deterministic, so a
// cached vector is always the one the provider would return.
type CachedEmbedder struct {
	next  Embedder
	cache *lru.Cache[string, []float32]
}

func NewCachedEmbedder(next Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: cache size must be greater than zero", ErrConfiguration)
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("init embedding cache: %w", err)
	}
	return &CachedEmbedder{next: next, cache: cache}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if vec, ok := c.cache.Get(key); ok {
		return cloneVector(vec), nil
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, cloneVector(vec))
	return vec, nil
}

func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	missing := make(map[string][]int)
	var order []string

	for i, t := range texts {
		if vec, ok := c.cache.Get(cacheKey(t)); ok {
			out[i] = cloneVector(vec)
			continue
		}
		if _, seen := missing[t]; !seen {
			order = append(order, t)
		}
		missing[t] = append(missing[t], i)
	}

	if len(order) == 0 {
		return out, nil
	}

	vecs, err := c.next.EmbedBatch(ctx, order)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(order) {
		return nil, fmt.Errorf("embed batch: got %d vectors for %d texts", len(vecs), len(order))
	}

	for i, t := range order {
		c.cache.Add(cacheKey(t), cloneVector(vecs[i]))
		for _, pos := range missing[t] {
			out[pos] = cloneVector(vecs[i])
		}
	}

	return out, nil
}

func (c *CachedEmbedder) Dimension() int {
	return c.next.Dimension()
}

func (c *CachedEmbedder) Close() error {
	c.cache.Purge()
	return c.next.Close()
}

func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cloneVector(src []float32) []float32 {
	if src == nil {
		return nil
	}
	return append([]float32(nil), src...)
}
