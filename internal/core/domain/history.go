package domain

import (
	"strings"
	"time"
)

// QAEntry is one answered question kept in the history table.
type QAEntry struct {
	// ID is the store-assigned identifier.
	ID int64

	// Source is the canonical source-set of documents that contributed
	// to the answer (see JoinSources). Empty means no source.
	Source string

	// Question is the question as asked.
	Question string

	// Answer is the generated answer.
	Answer string

	// Embedding is the vector of Question.
	Embedding []float32

	// CreatedAt is when the entry was stored.
	CreatedAt time.Time
}

// Sources returns the individual document names of the entry's source-set.
func (e QAEntry) Sources() []string {
	return SplitSources(e.Source)
}

// MatchesKeyword reports whether the question or answer contains keyword,
// ignoring Unicode case.
func (e QAEntry) MatchesKeyword(keyword string) bool {
	kw := strings.ToLower(keyword)
	return strings.Contains(strings.ToLower(e.Question), kw) ||
		strings.Contains(strings.ToLower(e.Answer), kw)
}

// ScoredQAEntry is a history entry paired with its similarity to a query.
type ScoredQAEntry struct {
	Entry QAEntry
	Score float64
}

// HistoryScan is the set of history entries eligible for semantic search.
type HistoryScan struct {
	// Entries have a decodable embedding.
	Entries []QAEntry

	// Skipped counts entries whose embedding was missing or malformed.
	Skipped int
}

// HistorySearchResult is the ranked output of a semantic history search.
type HistorySearchResult struct {
	Entries []ScoredQAEntry
	Skipped int
}
