package driven

import "github.com/custodia-labs/docqa/internal/core/domain"

// Ranker orders candidate vectors by similarity to a query vector.
// A linear scan satisfies it; an approximate index could replace it.
type Ranker interface {
	// Rank returns up to k hits ordered by descending score. Ties keep
	// candidate order. k <= 0 returns every candidate.
	Rank(query []float32, candidates [][]float32, k int) []domain.RankHit
}
