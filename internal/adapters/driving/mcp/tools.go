package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested documents"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of document chunks to use as context (default from settings)"`
}

// AskDocumentsInput is the input schema for the ask_documents tool.
type AskDocumentsInput struct {
	Documents []string `json:"documents" jsonschema:"names of the documents to restrict the answer to"`
	Question  string   `json:"question" jsonschema:"the question to answer"`
	TopK      int      `json:"top_k,omitempty" jsonschema:"number of document chunks to use as context (default from settings)"`
}

// AskOutput is the output schema for the ask tools.
type AskOutput struct {
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Sources  []string      `json:"sources"`
	Found    bool          `json:"found"`
	Chunks   []ChunkOutput `json:"chunks,omitempty"`
}

// ChunkOutput is one retrieved context chunk.
type ChunkOutput struct {
	Document string  `json:"document"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// ListDocumentsInput is the (empty) input schema for list_documents.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for list_documents.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput describes one stored document.
type DocumentOutput struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
}

// SearchHistoryInput is the input schema for search_history.
type SearchHistoryInput struct {
	Query string `json:"query" jsonschema:"keyword or question to look for in past answers"`
	Mode  string `json:"mode,omitempty" jsonschema:"keyword (default) or semantic"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum results for semantic mode (default from settings)"`
}

// SearchHistoryOutput is the output schema for search_history.
type SearchHistoryOutput struct {
	Entries []HistoryEntryOutput `json:"entries"`
	Count   int                  `json:"count"`
	Skipped int                  `json:"skipped,omitempty"`
}

// HistoryEntryOutput is one past question and answer.
type HistoryEntryOutput struct {
	ID       int64    `json:"id"`
	Sources  []string `json:"sources"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Time     string   `json:"time"`
	Score    *float64 `json:"score,omitempty"`
}

// History search modes.
const (
	modeKeyword  = "keyword"
	modeSemantic = "semantic"
)

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the most relevant passages of all ingested documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_documents",
		Description: "Answer a question using only the named documents",
	}, s.handleAskDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List ingested documents, most recently added first",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_history",
		Description: "Search previously answered questions by keyword or by meaning",
	}, s.handleSearchHistory)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Question.Ask(ctx, input.Question, input.TopK)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, toAskOutput(answer), nil
}

// handleAskDocuments handles the ask_documents tool invocation.
func (s *Server) handleAskDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskDocumentsInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Question.AskScoped(ctx, input.Documents, input.Question, input.TopK)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, toAskOutput(answer), nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	output := ListDocumentsOutput{Documents: []DocumentOutput{}}
	if s.ports.Document == nil {
		return nil, output, nil
	}

	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}
	for _, d := range docs {
		output.Documents = append(output.Documents, DocumentOutput{Name: d.Source, Chunks: d.ChunkCount})
	}
	output.Count = len(output.Documents)
	return nil, output, nil
}

// handleSearchHistory handles the search_history tool invocation.
func (s *Server) handleSearchHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchHistoryInput,
) (*mcp.CallToolResult, SearchHistoryOutput, error) {
	output := SearchHistoryOutput{Entries: []HistoryEntryOutput{}}
	if s.ports.History == nil {
		return nil, output, nil
	}

	switch mode := strings.ToLower(strings.TrimSpace(input.Mode)); mode {
	case "", modeKeyword:
		entries, err := s.ports.History.SearchKeyword(ctx, input.Query)
		if err != nil {
			return nil, SearchHistoryOutput{}, err
		}
		for i := range entries {
			output.Entries = append(output.Entries, toHistoryOutput(entries[i], nil))
		}
	case modeSemantic:
		result, err := s.ports.History.SearchSemantic(ctx, input.Query, input.TopK)
		if err != nil {
			return nil, SearchHistoryOutput{}, err
		}
		for i := range result.Entries {
			score := result.Entries[i].Score
			output.Entries = append(output.Entries, toHistoryOutput(result.Entries[i].Entry, &score))
		}
		output.Skipped = result.Skipped
	default:
		return nil, SearchHistoryOutput{}, fmt.Errorf("%w: unknown mode %q (use %s or %s)",
			domain.ErrInvalidInput, mode, modeKeyword, modeSemantic)
	}

	output.Count = len(output.Entries)
	return nil, output, nil
}

func toAskOutput(a *domain.Answer) AskOutput {
	out := AskOutput{
		Question: a.Question,
		Answer:   a.Answer,
		Sources:  a.Sources,
		Found:    a.Found,
	}
	if out.Sources == nil {
		out.Sources = []string{}
	}
	for _, c := range a.Chunks {
		out.Chunks = append(out.Chunks, ChunkOutput{
			Document: c.Chunk.Source,
			Text:     c.Chunk.Text,
			Score:    c.Score,
		})
	}
	return out
}

func toHistoryOutput(e domain.QAEntry, score *float64) HistoryEntryOutput {
	sources := e.Sources()
	if sources == nil {
		sources = []string{}
	}
	return HistoryEntryOutput{
		ID:       e.ID,
		Sources:  sources,
		Question: e.Question,
		Answer:   e.Answer,
		Time:     e.CreatedAt.Format(time.RFC3339),
		Score:    score,
	}
}
