package domain

import (
	"errors"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type no extractor can read.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrFileTooLarge indicates an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoDocuments indicates a question was asked against an empty store.
	ErrNoDocuments = errors.New("no documents have been ingested")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Question answering is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Ingestion and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// MissingDocumentsError lists requested documents that are not stored.
// It matches ErrNotFound with errors.Is.
type MissingDocumentsError struct {
	Names []string
}

func (e *MissingDocumentsError) Error() string {
	return "documents " + strings.Join(e.Names, SourceSeparator) + ": " + ErrNotFound.Error()
}

func (e *MissingDocumentsError) Unwrap() error {
	return ErrNotFound
}
