package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ==================== Chunks ====================

const chunkColumns = "id, source, text, embedding"

// AddChunk appends one chunk and sets its ID.
func (s *Store) AddChunk(ctx context.Context, chunk *domain.Chunk) error {
	if err := domain.ValidateChunk(chunk); err != nil {
		return err
	}
	embedding, err := encodeEmbedding(chunk.Embedding)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO chunks (source, text, embedding) VALUES (?, ?, ?)",
		chunk.Source, chunk.Text, embedding)
	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading chunk id: %w", err)
	}
	chunk.ID = id
	return nil
}

// AddChunks appends chunks in one transaction and sets their IDs.
func (s *Store) AddChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for i := range chunks {
		if err := domain.ValidateChunk(&chunks[i]); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO chunks (source, text, embedding) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, len(chunks))
	for i := range chunks {
		embedding, err := encodeEmbedding(chunks[i].Embedding)
		if err != nil {
			return err
		}

		res, err := stmt.ExecContext(ctx, chunks[i].Source, chunks[i].Text, embedding)
		if err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
		if ids[i], err = res.LastInsertId(); err != nil {
			return fmt.Errorf("reading chunk id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	// IDs are only handed out once the batch is durable.
	for i := range chunks {
		chunks[i].ID = ids[i]
	}
	return nil
}

// AllChunks returns every stored chunk in ID order.
func (s *Store) AllChunks(ctx context.Context) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, "SELECT "+chunkColumns+" FROM chunks ORDER BY id")
}

// ChunksBySource returns the chunks of one document in ID order.
func (s *Store) ChunksBySource(ctx context.Context, source string) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE source = ? ORDER BY id", source)
}

// ChunksBySources returns the chunks of any of the given documents in ID order.
func (s *Store) ChunksBySources(ctx context.Context, sources []string) ([]domain.Chunk, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	args := make([]any, len(sources))
	for i, src := range sources {
		args[i] = src
	}

	query := "SELECT " + chunkColumns + " FROM chunks WHERE source IN (" + placeholders(len(sources)) + ") ORDER BY id"
	return s.queryChunks(ctx, query, args...)
}

// ListDocuments returns one summary per document, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, COUNT(*), MAX(id)
		FROM chunks
		GROUP BY source
		ORDER BY MAX(id) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.DocumentSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var d domain.DocumentSummary
		if err := rows.Scan(&d.Source, &d.ChunkCount, &d.LastChunkID); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// scanChunk scans a chunk from *sql.Rows. A chunk whose embedding cannot be
// decoded is a storage error.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embedding sql.NullString

	if err := rows.Scan(&chunk.ID, &chunk.Source, &chunk.Text, &embedding); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	vec, err := decodeEmbedding(embedding)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", chunk.ID, err)
	}
	chunk.Embedding = vec

	return &chunk, nil
}
