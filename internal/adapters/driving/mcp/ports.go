package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Question answers questions from stored documents.
	Question driving.QuestionService

	// Document lists stored documents.
	Document driving.DocumentService

	// History reads past answers.
	History driving.HistoryService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p == nil || p.Question == nil {
		return ErrMissingQuestionService
	}
	// Document and History are optional; their tools report an empty result.
	return nil
}
