package internal

import (
	"context"
	"fmt"
)

var _ VectorIndex = (*FlatIndex)(nil)

// FlatIndex scans every entry. At corpus scale (about a hundred phrases) this
// is both exact and faster than any tree.
type FlatIndex struct {
	dimension int
	entries   []EmbeddedExample
}

func NewFlatIndex(entries []EmbeddedExample) (*FlatIndex, error) {
	dim, err := checkEntries(entries)
	if err != nil {
		return nil, err
	}

	copied := make([]EmbeddedExample, len(entries))
	for i, e := range entries {
		copied[i] = EmbeddedExample{
			Vector:   append([]float32(nil), e.Vector...),
			Category: e.Category,
		}
	}

	return &FlatIndex{dimension: dim, entries: copied}, nil
}

// BuildFlatIndex adapts NewFlatIndex to IndexBuilder.
func BuildFlatIndex(entries []EmbeddedExample) (VectorIndex, error) {
	return NewFlatIndex(entries)
}

func (f *FlatIndex) Nearest(_ context.Context, query []float32) (Match, error) {
	if len(query) != f.dimension {
		return Match{}, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, f.dimension, len(query))
	}

	best := Match{Position: -1}
	for i, e := range f.entries {
		d := squaredL2(query, e.Vector)
		// strict comparison keeps the first-inserted entry on ties
		if best.Position < 0 || d < best.Distance {
			best = Match{Category: e.Category, Distance: d, Position: i}
		}
	}

	return best, nil
}

func (f *FlatIndex) Len() int {
	return len(f.entries)
}

func (f *FlatIndex) Dimension() int {
	return f.dimension
}
