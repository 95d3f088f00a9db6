// Package ranking scores embedding vectors against a query.
//
// Scoring is cosine similarity over a full linear scan. Linear implements
// driven.Ranker so an approximate nearest-neighbour index can later replace
// it without changing callers.
package ranking
