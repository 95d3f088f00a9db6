package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// HistoryService reads the question/answer history.
type HistoryService interface {
	// List returns entries newest first, restricted to an exact source-set
	// when source is non-empty.
	List(ctx context.Context, source string) ([]domain.QAEntry, error)

	// SearchKeyword matches keyword case-insensitively against questions and answers.
	SearchKeyword(ctx context.Context, keyword string) ([]domain.QAEntry, error)

	// SearchSemantic returns the k entries whose questions are most similar to query.
	SearchSemantic(ctx context.Context, query string, k int) (*domain.HistorySearchResult, error)
}
