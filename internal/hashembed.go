package internal

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const DefaultHashDimension = 256

var _ Embedder = (*HashEmbedder)(nil)

// HashEmbedder is an offline, deterministic embedder based on feature
// hashing of words and character trigrams. It needs no network or model
// files, which makes it the backend of choice for development and tests; it
// captures spelling overlap only, not meaning.
type HashEmbedder struct {
	dimension int
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashEmbedder{dimension: dimension}
}

func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return h.vector(text), nil
}

func (h *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *HashEmbedder) Dimension() int {
	return h.dimension
}

func (h *HashEmbedder) Close() error {
	return nil
}

func (h *HashEmbedder) vector(text string) []float32 {
	acc := make([]float64, h.dimension)

	for _, word := range tokenize(text) {
		h.add(acc, "w:"+word, 1.0)

		runes := []rune("^" + word + "$")
		for i := 0; i+3 <= len(runes); i++ {
			h.add(acc, "t:"+string(runes[i:i+3]), 0.5)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, h.dimension)
	for i, v := range acc {
		if norm > 0 {
			v /= norm
		}
		out[i] = float32(v)
	}
	return out
}

func (h *HashEmbedder) add(acc []float64, feature string, weight float64) {
	sum := xxhash.Sum64String(feature)
	slot := sum % uint64(h.dimension)
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	acc[slot] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(Lower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
