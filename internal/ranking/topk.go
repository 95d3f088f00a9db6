package ranking

import (
	"sort"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Scored pairs a candidate with its similarity to the query.
type Scored[T any] struct {
	Item  T
	Score float64
}

// TopK scores every candidate against query and returns the best k,
// highest score first. Equal scores keep candidate order. k <= 0 or
// k >= len(candidates) returns every candidate.
func TopK[T any](query []float32, candidates []T, vector func(T) []float32, k int) []Scored[T] {
	scored := make([]Scored[T], len(candidates))
	for i, c := range candidates {
		scored[i] = Scored[T]{Item: c, Score: CosineSimilarity(query, vector(c))}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored
}

// Ensure Linear implements the interface.
var _ driven.Ranker = Linear{}

// Linear ranks by scanning every candidate.
type Linear struct{}

// NewLinear returns a linear-scan ranker.
func NewLinear() Linear {
	return Linear{}
}

// Rank implements driven.Ranker.
func (Linear) Rank(query []float32, candidates [][]float32, k int) []domain.RankHit {
	idx := make([]int, len(candidates))
	for i := range idx {
		idx[i] = i
	}

	top := TopK(query, idx, func(i int) []float32 { return candidates[i] }, k)

	hits := make([]domain.RankHit, len(top))
	for i, s := range top {
		hits[i] = domain.RankHit{Index: s.Item, Score: s.Score}
	}
	return hits
}
