package internal

import (
	"context"
	"fmt"
	"math"

	"github.com/mariotoffia/goannoy/builder"
	"github.com/mariotoffia/goannoy/interfaces"
)

var _ VectorIndex = (*AnnoyIndex)(nil)

type AnnoyOptions struct {
	Trees      int
	Candidates int
}

func DefaultAnnoyOptions() AnnoyOptions {
	return AnnoyOptions{Trees: 10, Candidates: 16}
}

// unitNormTolerance bounds how far an entry's norm may stray from 1 before
// the angular candidate list stops being trusted.
const unitNormTolerance = 1e-3

// AnnoyIndex asks annoy for a short candidate list and re-ranks it by exact
// squared L2, so its answers follow the same distance and tie rules as
// FlatIndex whenever the true neighbour is among the candidates.
//
// goannoy only ranks by angle. For unit-length entries the angular order and
// the L2 order agree; otherwise every entry is re-ranked, which keeps the L2
// contract at the cost of a full scan.
type AnnoyIndex struct {
	idx        interfaces.AnnoyIndex[float32, uint32]
	dimension  int
	candidates int
	entries    []EmbeddedExample
}

func NewAnnoyIndex(entries []EmbeddedExample, opts AnnoyOptions) (*AnnoyIndex, error) {
	dim, err := checkEntries(entries)
	if err != nil {
		return nil, err
	}

	if opts.Trees <= 0 {
		opts.Trees = DefaultAnnoyOptions().Trees
	}
	if opts.Candidates <= 0 {
		opts.Candidates = DefaultAnnoyOptions().Candidates
	}

	idx := builder.Index[float32, uint32]().
		AngularDistance(dim).
		UseMultiWorkerPolicy().
		MmapIndexAllocator().
		Build()

	copied := make([]EmbeddedExample, len(entries))
	for i, e := range entries {
		vec := append([]float32(nil), e.Vector...)
		copied[i] = EmbeddedExample{Vector: vec, Category: e.Category}
		idx.AddItem(uint32(i), vec)
	}

	idx.Build(opts.Trees, -1)

	if !unitLength(copied) {
		opts.Candidates = len(copied)
	}

	return &AnnoyIndex{
		idx:        idx,
		dimension:  dim,
		candidates: opts.Candidates,
		entries:    copied,
	}, nil
}

func unitLength(entries []EmbeddedExample) bool {
	for _, e := range entries {
		var sum float64
		for _, v := range e.Vector {
			sum += float64(v) * float64(v)
		}
		if math.Abs(math.Sqrt(sum)-1) > unitNormTolerance {
			return false
		}
	}
	return true
}

// AnnoyIndexBuilder returns an IndexBuilder using the given options.
func AnnoyIndexBuilder(opts AnnoyOptions) IndexBuilder {
	return func(entries []EmbeddedExample) (VectorIndex, error) {
		return NewAnnoyIndex(entries, opts)
	}
}

func (a *AnnoyIndex) Nearest(_ context.Context, query []float32) (Match, error) {
	if len(query) != a.dimension {
		return Match{}, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, a.dimension, len(query))
	}

	k := a.candidates
	if k > len(a.entries) {
		k = len(a.entries)
	}

	searchCtx := a.idx.CreateContext()
	ids, _ := a.idx.GetNnsByVector(query, k, -1, searchCtx)

	best := Match{Position: -1}
	for _, id := range ids {
		pos := int(id)
		if pos < 0 || pos >= len(a.entries) {
			continue
		}
		d := squaredL2(query, a.entries[pos].Vector)
		if best.Position < 0 || d < best.Distance || (d == best.Distance && pos < best.Position) {
			best = Match{Category: a.entries[pos].Category, Distance: d, Position: pos}
		}
	}

	if best.Position < 0 {
		return Match{}, fmt.Errorf("annoy returned no candidates")
	}

	return best, nil
}

func (a *AnnoyIndex) Len() int {
	return len(a.entries)
}

func (a *AnnoyIndex) Dimension() int {
	return a.dimension
}
