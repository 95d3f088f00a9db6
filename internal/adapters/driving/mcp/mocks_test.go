package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockQuestionService is a mock implementation of driving.QuestionService.
type mockQuestionService struct {
	answer     *domain.Answer
	err        error
	lastNames  []string
	lastK      int
	lastScoped bool
}

func (m *mockQuestionService) Ask(_ context.Context, question string, k int) (*domain.Answer, error) {
	m.lastK = k
	m.lastScoped = false
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{Question: question, Answer: domain.NoRelevantChunksAnswer}, nil
}

func (m *mockQuestionService) AskScoped(
	_ context.Context, names []string, question string, k int,
) (*domain.Answer, error) {
	m.lastNames = names
	m.lastK = k
	m.lastScoped = true
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{Question: question, Answer: domain.NoRelevantChunksAnswer}, nil
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.DocumentSummary
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentSummary, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Rename(_ context.Context, _, _ string) (*domain.SourceChange, error) {
	return &domain.SourceChange{}, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) (*domain.SourceChange, error) {
	return &domain.SourceChange{}, m.err
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	entries    []domain.QAEntry
	scored     *domain.HistorySearchResult
	err        error
	lastSource string
	lastQuery  string
	lastK      int
}

func (m *mockHistoryService) List(_ context.Context, source string) ([]domain.QAEntry, error) {
	m.lastSource = source
	return m.entries, m.err
}

func (m *mockHistoryService) SearchKeyword(_ context.Context, keyword string) ([]domain.QAEntry, error) {
	m.lastQuery = keyword
	return m.entries, m.err
}

func (m *mockHistoryService) SearchSemantic(
	_ context.Context, query string, k int,
) (*domain.HistorySearchResult, error) {
	m.lastQuery = query
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	if m.scored == nil {
		return &domain.HistorySearchResult{}, nil
	}
	return m.scored, nil
}
