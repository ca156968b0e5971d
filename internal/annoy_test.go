package internal

import (
	"context"
	"testing"
)

func TestAnnoyIndexNearest(t *testing.T) {
	idx, err := NewAnnoyIndex([]EmbeddedExample{
		{Vector: []float32{1.0, 0.0, 0.0}, Category: Affirmative},
		{Vector: []float32{0.0, 1.0, 0.0}, Category: Negative},
		{Vector: []float32{0.0, 0.0, 1.0}, Category: Indeterminate},
	}, AnnoyOptions{Trees: 2})
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	m, err := idx.Nearest(context.Background(), []float32{1.0, 0.1, 0.0})
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}

	if m.Category != Affirmative || m.Position != 0 {
		t.Errorf("expected affirmative at 0, got %v at %d", m.Category, m.Position)
	}
	if idx.Len() != 3 || idx.Dimension() != 3 {
		t.Errorf("len/dim = %d/%d, want 3/3", idx.Len(), idx.Dimension())
	}
}

func TestAnnoyIndexAgreesWithFlat(t *testing.T) {
	ctx := context.Background()
	embedder := NewHashEmbedder(64)

	corpus := DefaultCorpus()
	var entries []EmbeddedExample
	for _, ex := range corpus.Examples() {
		vec, _ := embedder.Embed(ctx, Lower(ex.Text))
		entries = append(entries, EmbeddedExample{Vector: vec, Category: ex.Category})
	}

	flat, err := NewFlatIndex(entries)
	if err != nil {
		t.Fatalf("flat: %v", err)
	}
	// enough candidates to cover the whole corpus, so re-ranking is exact
	annoy, err := NewAnnoyIndex(entries, AnnoyOptions{Trees: 10, Candidates: len(entries)})
	if err != nil {
		t.Fatalf("annoy: %v", err)
	}

	for _, ex := range corpus.Examples() {
		q, _ := embedder.Embed(ctx, Lower(ex.Text))

		want, err := flat.Nearest(ctx, q)
		if err != nil {
			t.Fatalf("flat nearest: %v", err)
		}
		got, err := annoy.Nearest(ctx, q)
		if err != nil {
			t.Fatalf("annoy nearest: %v", err)
		}
		if got.Category != want.Category {
			t.Errorf("%q: annoy %v, flat %v", ex.Text, got.Category, want.Category)
		}
	}
}

func TestAnnoyIndexUnnormalizedVectorsMatchFlat(t *testing.T) {
	var entries []EmbeddedExample
	for i := 0; i < 40; i++ {
		entries = append(entries, EmbeddedExample{Vector: []float32{float32(100 + i), 1}, Category: Affirmative})
	}
	entries = append(entries, EmbeddedExample{Vector: []float32{0.5, 1.5}, Category: Negative})

	flat, err := NewFlatIndex(entries)
	if err != nil {
		t.Fatalf("flat: %v", err)
	}
	annoy, err := NewAnnoyIndex(entries, DefaultAnnoyOptions())
	if err != nil {
		t.Fatalf("annoy: %v", err)
	}

	query := []float32{1, 0.01}
	want, err := flat.Nearest(context.Background(), query)
	if err != nil {
		t.Fatalf("flat nearest: %v", err)
	}
	got, err := annoy.Nearest(context.Background(), query)
	if err != nil {
		t.Fatalf("annoy nearest: %v", err)
	}

	if got != want {
		t.Errorf("annoy %+v, flat %+v", got, want)
	}
	if got.Position != 40 || got.Category != Negative {
		t.Errorf("expected negative at 40, got %v at %d", got.Category, got.Position)
	}
}

func TestUnitLength(t *testing.T) {
	if !unitLength([]EmbeddedExample{{Vector: []float32{0.6, 0.8}}, {Vector: []float32{0, 1}}}) {
		t.Error("unit vectors reported as unnormalized")
	}
	if unitLength([]EmbeddedExample{{Vector: []float32{0.6, 0.8}}, {Vector: []float32{2, 0}}}) {
		t.Error("vector of norm 2 reported as unit length")
	}
}

func TestAnnoyIndexTieBreak(t *testing.T) {
	idx, err := NewAnnoyIndex([]EmbeddedExample{
		{Vector: []float32{1, 0}, Category: Negative},
		{Vector: []float32{1, 0}, Category: Affirmative},
		{Vector: []float32{0, 1}, Category: Indeterminate},
	}, AnnoyOptions{Trees: 4, Candidates: 3})
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	for i := 0; i < 20; i++ {
		m, err := idx.Nearest(context.Background(), []float32{1, 0})
		if err != nil {
			t.Fatalf("nearest: %v", err)
		}
		if m.Position != 0 || m.Category != Negative {
			t.Fatalf("run %d: expected first duplicate (negative at 0), got %v at %d", i, m.Category, m.Position)
		}
	}
}

func TestAnnoyIndexDimensionMismatch(t *testing.T) {
	idx, err := NewAnnoyIndex([]EmbeddedExample{{Vector: []float32{1, 0}, Category: Affirmative}}, DefaultAnnoyOptions())
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	if _, err := idx.Nearest(context.Background(), []float32{1}); err == nil {
		t.Fatal("expected dimension mismatch")
	}
}

func TestAnnoyIndexEmpty(t *testing.T) {
	if _, err := NewAnnoyIndex(nil, DefaultAnnoyOptions()); err == nil {
		t.Fatal("expected error for empty index")
	}
}
