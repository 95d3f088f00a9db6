package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// RetrievalEngine finds the stored chunks and history entries most similar
// to a query. It only reads from the store and is safe for concurrent use.
type RetrievalEngine struct {
	store    driven.KnowledgeStore
	embedder driven.EmbeddingService
	ranker   driven.Ranker
}

// NewRetrievalEngine creates a retrieval engine.
// The embedder is optional; without it SearchHistory fails with
// domain.ErrEmbeddingUnavailable.
func NewRetrievalEngine(
	store driven.KnowledgeStore,
	embedder driven.EmbeddingService,
	ranker driven.Ranker,
) *RetrievalEngine {
	return &RetrievalEngine{
		store:    store,
		embedder: embedder,
		ranker:   ranker,
	}
}

// SearchDocuments ranks every stored chunk against queryEmbedding and
// returns the best k.
func (e *RetrievalEngine) SearchDocuments(
	ctx context.Context, queryEmbedding []float32, k int,
) ([]domain.ScoredChunk, error) {
	chunks, err := e.store.AllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	logger.Debug("Ranking %d chunks (k=%d)", len(chunks), k)
	return e.rankChunks(queryEmbedding, chunks, k), nil
}

// SearchInDocuments ranks only the chunks of the named documents. The top k
// is taken across all of them, not per document.
func (e *RetrievalEngine) SearchInDocuments(
	ctx context.Context, names []string, queryEmbedding []float32, k int,
) ([]domain.ScoredChunk, error) {
	if len(names) == 0 {
		return []domain.ScoredChunk{}, nil
	}
	chunks, err := e.store.ChunksBySources(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("load chunks for %s: %w", strings.Join(names, ", "), err)
	}
	logger.Debug("Ranking %d chunks from %d documents (k=%d)", len(chunks), len(names), k)
	return e.rankChunks(queryEmbedding, chunks, k), nil
}

// SearchHistory embeds query and returns the k most similar past questions.
// Entries whose stored embedding cannot be read are counted in Skipped.
func (e *RetrievalEngine) SearchHistory(
	ctx context.Context, query string, k int,
) (*domain.HistorySearchResult, error) {
	if e.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scan, err := e.store.ScanHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	if scan.Skipped > 0 {
		logger.Warn("Skipped %d history entries with unreadable embeddings", scan.Skipped)
	}

	vectors := make([][]float32, len(scan.Entries))
	for i := range scan.Entries {
		vectors[i] = scan.Entries[i].Embedding
	}

	hits := e.ranker.Rank(vec, vectors, k)
	result := &domain.HistorySearchResult{
		Entries: make([]domain.ScoredQAEntry, 0, len(hits)),
		Skipped: scan.Skipped,
	}
	for _, h := range hits {
		result.Entries = append(result.Entries, domain.ScoredQAEntry{
			Entry: scan.Entries[h.Index],
			Score: h.Score,
		})
	}
	return result, nil
}

func (e *RetrievalEngine) rankChunks(query []float32, chunks []domain.Chunk, k int) []domain.ScoredChunk {
	vectors := make([][]float32, len(chunks))
	for i := range chunks {
		vectors[i] = chunks[i].Embedding
	}

	hits := e.ranker.Rank(query, vectors, k)
	out := make([]domain.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, domain.ScoredChunk{Chunk: chunks[h.Index], Score: h.Score})
	}
	return out
}
