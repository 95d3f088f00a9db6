package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService reads past questions and answers.
type HistoryService struct {
	store       driven.KnowledgeStore
	engine      *RetrievalEngine
	defaultTopK int
}

// NewHistoryService creates a new history service. defaultTopK is used by
// SearchSemantic when the caller passes k <= 0.
func NewHistoryService(store driven.KnowledgeStore, engine *RetrievalEngine, defaultTopK int) *HistoryService {
	if defaultTopK <= 0 {
		defaultTopK = domain.DefaultHistoryTopK
	}
	return &HistoryService{
		store:       store,
		engine:      engine,
		defaultTopK: defaultTopK,
	}
}

// List returns entries newest first, restricted to the exact source-set
// when source is non-empty.
func (s *HistoryService) List(ctx context.Context, source string) ([]domain.QAEntry, error) {
	source = strings.TrimSpace(source)
	if source != "" {
		// Accept "b, a" for the stored set "a, b".
		source = domain.JoinSources(domain.SplitSources(source))
	}
	entries, err := s.store.ListHistory(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// SearchKeyword matches keyword against questions and answers.
func (s *HistoryService) SearchKeyword(ctx context.Context, keyword string) ([]domain.QAEntry, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("%w: keyword is required", domain.ErrInvalidInput)
	}
	entries, err := s.store.SearchHistoryByKeyword(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	logger.Debug("Keyword %q matched %d entries", keyword, len(entries))
	return entries, nil
}

// SearchSemantic returns the k past questions most similar to query.
func (s *HistoryService) SearchSemantic(
	ctx context.Context, query string, k int,
) (*domain.HistorySearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = s.defaultTopK
	}
	return s.engine.SearchHistory(ctx, query, k)
}
