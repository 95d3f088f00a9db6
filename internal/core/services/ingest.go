package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService splits documents into chunks, embeds them and stores them.
type IngestService struct {
	store     driven.KnowledgeStore
	chunker   driven.Chunker
	embedder  driven.EmbeddingService
	extractor driven.TextExtractor
	locks     *SourceLocks
}

// NewIngestService creates a new ingest service.
// The embedder may be nil, in which case every ingest that produces
// chunks fails with domain.ErrEmbeddingUnavailable.
func NewIngestService(
	store driven.KnowledgeStore,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	extractor driven.TextExtractor,
	locks *SourceLocks,
) *IngestService {
	if locks == nil {
		locks = NewSourceLocks()
	}
	return &IngestService{
		store:     store,
		chunker:   chunker,
		embedder:  embedder,
		extractor: extractor,
		locks:     locks,
	}
}

// Ingest chunks text and stores every chunk under name.
// All chunks are embedded before anything is written, so a failed
// embedding leaves the store untouched.
func (s *IngestService) Ingest(ctx context.Context, name, text string) (*domain.IngestResult, error) {
	logger.Section("Ingest")
	logger.Debug("Document: %q (%d bytes)", name, len(text))

	if err := domain.ValidateDocumentName(name); err != nil {
		return nil, err
	}

	result := &domain.IngestResult{Document: name}

	pieces := s.chunker.Split(text)
	if len(pieces) == 0 {
		logger.Info("Document %q has no text, skipping", name)
		result.Skipped = true
		return result, nil
	}
	logger.Debug("Split into %d chunks", len(pieces))

	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	done := logger.Timed("embed chunks")
	vectors, err := s.embedder.EmbedBatch(ctx, pieces)
	done()
	if err != nil {
		return nil, fmt.Errorf("embed document %q: %w", name, err)
	}
	if len(vectors) != len(pieces) {
		return nil, fmt.Errorf("embed document %q: got %d embeddings for %d chunks", name, len(vectors), len(pieces))
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, p := range pieces {
		if len(vectors[i]) == 0 {
			return nil, fmt.Errorf("embed document %q: chunk %d: %w: empty embedding",
				name, i, domain.ErrInvalidInput)
		}
		chunks[i] = domain.Chunk{Source: name, Text: p, Embedding: vectors[i]}
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	if err := s.store.AddChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("store chunks for %q: %w", name, err)
	}

	result.Chunks = len(chunks)
	logger.Info("Ingested %q: %d chunks", name, result.Chunks)
	return result, nil
}

// IngestFile extracts the text of the file at path and ingests it under name,
// or under the file's base name when name is empty.
func (s *IngestService) IngestFile(ctx context.Context, path, name string) (*domain.IngestResult, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("%w: no text extractor configured", domain.ErrUnsupportedType)
	}
	if strings.TrimSpace(name) == "" {
		name = filepath.Base(path)
	}

	text, err := s.extractor.ExtractFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}
	return s.Ingest(ctx, name, text)
}

// SupportedExtensions lists the file extensions IngestFile accepts.
func (s *IngestService) SupportedExtensions() []string {
	if s.extractor == nil {
		return nil
	}
	return s.extractor.SupportedExtensions()
}
