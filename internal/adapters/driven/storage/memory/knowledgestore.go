package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure KnowledgeStore implements the interface.
var _ driven.KnowledgeStore = (*KnowledgeStore)(nil)

// KnowledgeStore is an in-memory implementation of driven.KnowledgeStore.
// Entries are kept in insertion order, so slices are already sorted by ID.
type KnowledgeStore struct {
	mu      sync.RWMutex
	chunks  []domain.Chunk
	history []domain.QAEntry
	nextID  int64
	nextQA  int64
}

// NewKnowledgeStore creates a new in-memory knowledge store.
func NewKnowledgeStore() *KnowledgeStore {
	return &KnowledgeStore{nextID: 1, nextQA: 1}
}

// AddChunk appends one chunk and sets its ID.
func (s *KnowledgeStore) AddChunk(ctx context.Context, chunk *domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := domain.ValidateChunk(chunk); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	chunk.ID = s.nextID
	s.nextID++
	s.chunks = append(s.chunks, copyChunk(*chunk))
	return nil
}

// AddChunks appends chunks atomically and sets their IDs.
func (s *KnowledgeStore) AddChunks(ctx context.Context, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i := range chunks {
		if err := domain.ValidateChunk(&chunks[i]); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range chunks {
		chunks[i].ID = s.nextID
		s.nextID++
		s.chunks = append(s.chunks, copyChunk(chunks[i]))
	}
	return nil
}

// AllChunks returns every stored chunk in ID order.
func (s *KnowledgeStore) AllChunks(_ context.Context) ([]domain.Chunk, error) {
	return s.filterChunks(func(domain.Chunk) bool { return true }), nil
}

// ChunksBySource returns the chunks of one document in ID order.
func (s *KnowledgeStore) ChunksBySource(_ context.Context, source string) ([]domain.Chunk, error) {
	return s.filterChunks(func(c domain.Chunk) bool { return c.Source == source }), nil
}

// ChunksBySources returns the chunks of any of the given documents in ID order.
func (s *KnowledgeStore) ChunksBySources(_ context.Context, sources []string) ([]domain.Chunk, error) {
	want := make(map[string]bool, len(sources))
	for _, src := range sources {
		want[src] = true
	}
	return s.filterChunks(func(c domain.Chunk) bool { return want[c.Source] }), nil
}

// ListDocuments returns one summary per document, newest first.
func (s *KnowledgeStore) ListDocuments(_ context.Context) ([]domain.DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySource := make(map[string]*domain.DocumentSummary)
	for _, c := range s.chunks {
		d, ok := bySource[c.Source]
		if !ok {
			d = &domain.DocumentSummary{Source: c.Source}
			bySource[c.Source] = d
		}
		d.ChunkCount++
		if c.ID > d.LastChunkID {
			d.LastChunkID = c.ID
		}
	}

	docs := make([]domain.DocumentSummary, 0, len(bySource))
	for _, d := range bySource {
		docs = append(docs, *d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].LastChunkID > docs[j].LastChunkID })
	return docs, nil
}

// RenameSource moves chunks and history references from oldName to newName.
func (s *KnowledgeStore) RenameSource(_ context.Context, oldName, newName string) (domain.SourceChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var change domain.SourceChange
	if !s.hasSource(oldName) {
		return change, fmt.Errorf("document %q: %w", oldName, domain.ErrNotFound)
	}
	if s.hasSource(newName) {
		return change, fmt.Errorf("document %q: %w", newName, domain.ErrAlreadyExists)
	}

	for i := range s.chunks {
		if s.chunks[i].Source == oldName {
			s.chunks[i].Source = newName
			change.Chunks++
		}
	}
	for i := range s.history {
		if set, ok := domain.RenameInSources(s.history[i].Source, oldName, newName); ok {
			s.history[i].Source = set
			change.History++
		}
	}
	return change, nil
}

// DeleteSource removes chunks of name and drops it from history source-sets.
func (s *KnowledgeStore) DeleteSource(_ context.Context, name string) (domain.SourceChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var change domain.SourceChange
	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.Source == name {
			change.Chunks++
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept

	history := s.history[:0]
	for _, e := range s.history {
		set, ok := domain.RemoveFromSources(e.Source, name)
		if !ok {
			history = append(history, e)
			continue
		}
		change.History++
		if set == "" {
			continue
		}
		e.Source = set
		history = append(history, e)
	}
	s.history = history
	return change, nil
}

// AddQAEntry appends a history entry and sets its ID and CreatedAt.
func (s *KnowledgeStore) AddQAEntry(ctx context.Context, entry *domain.QAEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextQA
	s.nextQA++
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	e := *entry
	e.Embedding = append([]float32(nil), entry.Embedding...)
	s.history = append(s.history, e)
	return nil
}

// ListHistory returns history entries newest first.
func (s *KnowledgeStore) ListHistory(_ context.Context, source string) ([]domain.QAEntry, error) {
	return s.filterHistory(func(e domain.QAEntry) bool {
		return source == "" || e.Source == source
	}), nil
}

// SearchHistoryByKeyword returns entries whose question or answer contains keyword.
func (s *KnowledgeStore) SearchHistoryByKeyword(_ context.Context, keyword string) ([]domain.QAEntry, error) {
	return s.filterHistory(func(e domain.QAEntry) bool {
		return e.MatchesKeyword(keyword)
	}), nil
}

// ScanHistory returns entries that have an embedding and counts those that don't.
func (s *KnowledgeStore) ScanHistory(_ context.Context) (domain.HistoryScan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scan domain.HistoryScan
	for _, e := range s.history {
		if len(e.Embedding) == 0 {
			scan.Skipped++
			continue
		}
		scan.Entries = append(scan.Entries, e)
	}
	return scan, nil
}

// Close is a no-op.
func (s *KnowledgeStore) Close() error {
	return nil
}

func (s *KnowledgeStore) hasSource(name string) bool {
	for _, c := range s.chunks {
		if c.Source == name {
			return true
		}
	}
	return false
}

func (s *KnowledgeStore) filterChunks(keep func(domain.Chunk) bool) []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Chunk
	for _, c := range s.chunks {
		if keep(c) {
			out = append(out, copyChunk(c))
		}
	}
	return out
}

// filterHistory returns matches newest first.
func (s *KnowledgeStore) filterHistory(keep func(domain.QAEntry) bool) []domain.QAEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.QAEntry
	for i := len(s.history) - 1; i >= 0; i-- {
		if keep(s.history[i]) {
			out = append(out, s.history[i])
		}
	}
	return out
}

func copyChunk(c domain.Chunk) domain.Chunk {
	c.Embedding = append([]float32(nil), c.Embedding...)
	return c
}
