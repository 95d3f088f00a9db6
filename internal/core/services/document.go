package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService lists, renames and deletes stored documents.
// When a FileStore is attached, the uploaded original follows the document.
type DocumentService struct {
	store driven.KnowledgeStore
	files driven.FileStore
	locks *SourceLocks
}

// NewDocumentService creates a new document service. Pass the same
// SourceLocks as the IngestService so the two serialise on shared names.
func NewDocumentService(store driven.KnowledgeStore, locks *SourceLocks) *DocumentService {
	if locks == nil {
		locks = NewSourceLocks()
	}
	return &DocumentService{
		store: store,
		locks: locks,
	}
}

// WithFileStore attaches the store holding uploaded originals.
func (s *DocumentService) WithFileStore(files driven.FileStore) *DocumentService {
	s.files = files
	return s
}

// List returns one summary per document, most recently ingested first.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Rename moves a document and every history reference to it to newName.
func (s *DocumentService) Rename(ctx context.Context, oldName, newName string) (*domain.SourceChange, error) {
	logger.Section("Rename Document")
	logger.Debug("%q -> %q", oldName, newName)

	if oldName == "" {
		return nil, fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidateDocumentName(newName); err != nil {
		return nil, err
	}
	if oldName == newName {
		return nil, fmt.Errorf("%w: new name is the same as the old name", domain.ErrInvalidInput)
	}

	unlock := s.locks.Lock(oldName, newName)
	defer unlock()

	stored, err := s.isStored(ctx, oldName)
	if err != nil {
		return nil, err
	}
	hasFile := s.hasFile(oldName)
	if !stored && !hasFile {
		return nil, fmt.Errorf("document %q: %w", oldName, domain.ErrNotFound)
	}
	if s.hasFile(newName) {
		return nil, fmt.Errorf("file %q: %w", newName, domain.ErrAlreadyExists)
	}
	if taken, err := s.isStored(ctx, newName); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("document %q: %w", newName, domain.ErrAlreadyExists)
	}

	if hasFile {
		if err := s.files.Rename(oldName, newName); err != nil {
			return nil, fmt.Errorf("rename file %q: %w", oldName, err)
		}
	}

	change := domain.SourceChange{}
	if stored {
		change, err = s.store.RenameSource(ctx, oldName, newName)
		if err != nil {
			if hasFile {
				if rbErr := s.files.Rename(newName, oldName); rbErr != nil {
					logger.Error("Restoring file %q failed: %v", oldName, rbErr)
				}
			}
			return nil, fmt.Errorf("rename %q: %w", oldName, err)
		}
	}
	logger.Info("Renamed %q to %q (%d chunks, %d history entries)", oldName, newName, change.Chunks, change.History)
	return &change, nil
}

// Delete removes a document's chunks and drops it from history.
// History entries that referenced only this document are removed.
func (s *DocumentService) Delete(ctx context.Context, name string) (*domain.SourceChange, error) {
	logger.Section("Delete Document")
	logger.Debug("Document: %q", name)

	if name == "" {
		return nil, fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	stored, err := s.isStored(ctx, name)
	if err != nil {
		return nil, err
	}
	hasFile := s.hasFile(name)
	if !stored && !hasFile {
		return nil, fmt.Errorf("document %q: %w", name, domain.ErrNotFound)
	}

	change := domain.SourceChange{}
	if stored {
		change, err = s.store.DeleteSource(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("delete %q: %w", name, err)
		}
	}
	if hasFile {
		if err := s.files.Remove(name); err != nil {
			return nil, fmt.Errorf("remove file %q: %w", name, err)
		}
	}
	logger.Info("Deleted %q (%d chunks, %d history entries)", name, change.Chunks, change.History)
	return &change, nil
}

func (s *DocumentService) isStored(ctx context.Context, name string) (bool, error) {
	chunks, err := s.store.ChunksBySource(ctx, name)
	if err != nil {
		return false, fmt.Errorf("load document %q: %w", name, err)
	}
	return len(chunks) > 0, nil
}

func (s *DocumentService) hasFile(name string) bool {
	return s.files != nil && s.files.Exists(name)
}
