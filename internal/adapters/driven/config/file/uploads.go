package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure UploadStore implements the interface.
var _ driven.FileStore = (*UploadStore)(nil)

// UploadStore keeps uploaded documents in a flat directory.
// Names are sanitised and made unique by appending _1, _2, ... to the stem.
type UploadStore struct {
	mu  sync.Mutex
	dir string
}

// NewUploadStore creates the upload directory if needed.
// If dir is empty, defaults to ~/.docqa/uploads.
func NewUploadStore(dir string) (*UploadStore, error) {
	dir, err := subDir(dir, "uploads")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &UploadStore{dir: dir}, nil
}

// Dir returns the upload directory.
func (s *UploadStore) Dir() string {
	return s.dir
}

// Save streams r to a temporary file, then moves it to a unique name.
func (s *UploadStore) Save(ctx context.Context, name string, r io.Reader, limit int64) (string, error) {
	tmp := filepath.Join(s.dir, "."+uuid.NewString()+".part")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	reader := r
	if limit > 0 {
		reader = io.LimitReader(r, limit+1)
	}
	n, copyErr := io.Copy(f, reader)
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil {
		copyErr = ctx.Err()
	}
	if copyErr == nil && limit > 0 && n > limit {
		copyErr = fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, limit)
	}
	if copyErr == nil && n == 0 {
		copyErr = fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}
	if copyErr != nil {
		_ = os.Remove(tmp)
		return "", copyErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.uniqueName(domain.SanitizeDocumentName(name))
	if err := os.Rename(tmp, filepath.Join(s.dir, stored)); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("store upload: %w", err)
	}
	return stored, nil
}

// uniqueName returns name, or stem_N.ext for the smallest free N (caller holds mu).
func (s *UploadStore) uniqueName(name string) string {
	if !s.Exists(name) {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !s.Exists(candidate) {
			return candidate
		}
	}
}

// Path returns the on-disk path of a stored file.
func (s *UploadStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Exists reports whether a file is stored under name.
func (s *UploadStore) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Rename moves a stored file to newName.
func (s *UploadStore) Rename(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Exists(oldName) {
		return fmt.Errorf("file %q: %w", oldName, domain.ErrNotFound)
	}
	if s.Exists(newName) {
		return fmt.Errorf("file %q: %w", newName, domain.ErrAlreadyExists)
	}
	return os.Rename(s.Path(oldName), s.Path(newName))
}

// Remove deletes a stored file.
func (s *UploadStore) Remove(name string) error {
	err := os.Remove(s.Path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
