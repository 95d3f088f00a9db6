package httpapi

import (
	"errors"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Errors returned by Ports.Validate.
var (
	ErrMissingIngestService   = errors.New("httpapi: ingest service is required")
	ErrMissingQuestionService = errors.New("httpapi: question service is required")
	ErrMissingDocumentService = errors.New("httpapi: document service is required")
	ErrMissingHistoryService  = errors.New("httpapi: history service is required")
	ErrMissingFileStore       = errors.New("httpapi: file store is required")
)

// Ports aggregates the services the HTTP API serves.
type Ports struct {
	Ingest   driving.IngestService
	Question driving.QuestionService
	Document driving.DocumentService
	History  driving.HistoryService

	// Files keeps uploaded originals.
	Files driven.FileStore
}

// Validate ensures every port is set.
func (p *Ports) Validate() error {
	switch {
	case p == nil || p.Question == nil:
		return ErrMissingQuestionService
	case p.Ingest == nil:
		return ErrMissingIngestService
	case p.Document == nil:
		return ErrMissingDocumentService
	case p.History == nil:
		return ErrMissingHistoryService
	case p.Files == nil:
		return ErrMissingFileStore
	}
	return nil
}
