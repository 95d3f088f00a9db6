package domain

// RankHit is one result of ranking a query vector against candidates.
type RankHit struct {
	// Index is the position of the candidate in the ranked input.
	Index int

	// Score is the cosine similarity to the query.
	Score float64
}
