package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	mu     sync.Mutex
	paths  []string
	names  []string
	chunks int
	empty  map[string]bool
	err    error
}

func (m *mockIngestService) Ingest(_ context.Context, name, _ string) (*domain.IngestResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{Document: name, Chunks: m.chunks}, nil
}

func (m *mockIngestService) IngestFile(_ context.Context, path, name string) (*domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
	m.names = append(m.names, name)
	if m.err != nil {
		return nil, m.err
	}
	if name == "" {
		name = filepath.Base(path)
	}
	if m.empty[path] {
		return &domain.IngestResult{Document: name, Skipped: true}, nil
	}
	return &domain.IngestResult{Document: name, Chunks: m.chunks}, nil
}

func (m *mockIngestService) SupportedExtensions() []string {
	return []string{".md", ".txt"}
}

// mockQuestionService implements driving.QuestionService for testing.
type mockQuestionService struct {
	answer    *domain.Answer
	err       error
	lastQ     string
	lastNames []string
	lastK     int
	scoped    bool
}

func (m *mockQuestionService) Ask(_ context.Context, question string, k int) (*domain.Answer, error) {
	m.lastQ, m.lastK, m.scoped = question, k, false
	return m.result(question)
}

func (m *mockQuestionService) AskScoped(
	_ context.Context, names []string, question string, k int,
) (*domain.Answer, error) {
	m.lastQ, m.lastK, m.lastNames, m.scoped = question, k, names, true
	return m.result(question)
}

func (m *mockQuestionService) result(question string) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{Question: question, Answer: domain.NoRelevantChunksAnswer}, nil
}

// mockDocumentService implements driving.DocumentService for testing.
type mockDocumentService struct {
	documents []domain.DocumentSummary
	change    domain.SourceChange
	err       error
	deleteErr error
	deleted   []string
	renamed   [2]string
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentSummary, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Rename(_ context.Context, oldName, newName string) (*domain.SourceChange, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.renamed = [2]string{oldName, newName}
	change := m.change
	return &change, nil
}

func (m *mockDocumentService) Delete(_ context.Context, name string) (*domain.SourceChange, error) {
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	m.deleted = append(m.deleted, name)
	change := m.change
	return &change, nil
}

// mockHistoryService implements driving.HistoryService for testing.
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
	m.lastQuery, m.lastK = query, k
	if m.err != nil {
		return nil, m.err
	}
	if m.scored == nil {
		return &domain.HistorySearchResult{}, nil
	}
	return m.scored, nil
}

var errBoom = errors.New("boom")

var testTime = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

// testServices are the mocks installed by setupTestServices.
type testServices struct {
	ingest   *mockIngestService
	question *mockQuestionService
	document *mockDocumentService
	history  *mockHistoryService
}

// setupTestServices installs fresh mocks and returns them with a cleanup
// function.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		ingest:   &mockIngestService{chunks: 4},
		question: &mockQuestionService{},
		document: &mockDocumentService{},
		history:  &mockHistoryService{},
	}
	SetServices(&Services{
		Ingest:   ts.ingest,
		Question: ts.question,
		Document: ts.document,
		History:  ts.history,
	})
	return ts, func() { SetServices(nil) }
}

// execute runs the root command with args and returns everything it
// printed. Flags are reset afterwards so tests stay independent.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func commandNames(cmd *cobra.Command) []string {
	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, strings.Fields(c.Use)[0])
	}
	return names
}
