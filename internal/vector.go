package internal

import (
	"context"
	"fmt"
)

type EmbeddedExample struct {
	Vector   []float32
	Category Category
}

// Match is the single nearest corpus entry for a query.
type Match struct {
	Category Category
	Distance float32 // squared L2
	Position int     // index of the entry in corpus order
}

// VectorIndex answers nearest-neighbour queries over an immutable set of
// embedded examples. Implementations must be safe for concurrent use once
// built.
type VectorIndex interface {
	Nearest(ctx context.Context, query []float32) (Match, error)
	Len() int
	Dimension() int
}

// IndexBuilder constructs a VectorIndex from embedded examples.
type IndexBuilder func(entries []EmbeddedExample) (VectorIndex, error)

func checkEntries(entries []EmbeddedExample) (int, error) {
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: index needs at least one entry", ErrConfiguration)
	}

	dim := len(entries[0].Vector)
	if dim == 0 {
		return 0, fmt.Errorf("%w: entry 0 has an empty vector", ErrConfiguration)
	}

	for i, e := range entries {
		if len(e.Vector) != dim {
			return 0, fmt.Errorf("%w: entry %d has dimension %d, expected %d", ErrConfiguration, i, len(e.Vector), dim)
		}
		if !e.Category.Valid() {
			return 0, fmt.Errorf("%w: entry %d has invalid category %d", ErrConfiguration, i, e.Category)
		}
	}

	return dim, nil
}

func squaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}
