package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// KnowledgeStore persists document chunks and question/answer history.
//
// Every method is its own unit of work. RenameSource and DeleteSource touch
// both chunks and history and must apply atomically.
type KnowledgeStore interface {
	// AddChunk appends one chunk and sets its ID.
	AddChunk(ctx context.Context, chunk *domain.Chunk) error

	// AddChunks appends chunks in one transaction and sets their IDs.
	// Either all chunks are stored or none are.
	AddChunks(ctx context.Context, chunks []domain.Chunk) error

	// AllChunks returns every stored chunk in ID order.
	AllChunks(ctx context.Context) ([]domain.Chunk, error)

	// ChunksBySource returns the chunks of one document in ID order.
	ChunksBySource(ctx context.Context, source string) ([]domain.Chunk, error)

	// ChunksBySources returns the chunks of any of the given documents in ID order.
	ChunksBySources(ctx context.Context, sources []string) ([]domain.Chunk, error)

	// ListDocuments returns one summary per document, most recently
	// ingested (highest chunk ID) first.
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)

	// RenameSource moves all chunks from oldName to newName and rewrites
	// history source-sets that contain oldName.
	RenameSource(ctx context.Context, oldName, newName string) (domain.SourceChange, error)

	// DeleteSource removes all chunks of name and drops name from history
	// source-sets. History entries left with no source are removed.
	// Deleting an unknown name is a no-op.
	DeleteSource(ctx context.Context, name string) (domain.SourceChange, error)

	// AddQAEntry appends a history entry and sets its ID and CreatedAt.
	AddQAEntry(ctx context.Context, entry *domain.QAEntry) error

	// ListHistory returns history entries newest first.
	// A non-empty source restricts the result to that exact source-set.
	ListHistory(ctx context.Context, source string) ([]domain.QAEntry, error)

	// SearchHistoryByKeyword returns entries whose question or answer
	// contains keyword, case-insensitively, newest first.
	SearchHistoryByKeyword(ctx context.Context, keyword string) ([]domain.QAEntry, error)

	// ScanHistory returns all history entries with a usable embedding and
	// counts those without one.
	ScanHistory(ctx context.Context) (domain.HistoryScan, error)

	// Close releases resources.
	Close() error
}
