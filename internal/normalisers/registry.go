package normalisers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.TextExtractor = (*Registry)(nil)

// Registry maps file extensions to normalisers.
type Registry struct {
	mu     sync.RWMutex
	byExt  map[string]driven.Normaliser
	maxLen int64
}

// NewRegistry creates an empty registry. Files larger than maxBytes are
// rejected by ExtractFile; zero means no limit.
func NewRegistry(maxBytes int64) *Registry {
	return &Registry{
		byExt:  make(map[string]driven.Normaliser),
		maxLen: maxBytes,
	}
}

// Register adds a normaliser. Later registrations win for shared extensions.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range n.SupportedExtensions() {
		r.byExt[strings.ToLower(ext)] = n
	}
}

// SupportedExtensions returns all registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether name has a registered extension.
func (r *Registry) Supports(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byExt[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extract returns the text of raw using the normaliser for its extension.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	ext := raw.Extension()

	r.mu.RLock()
	n, ok := r.byExt[ext]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q (supported: %s)",
			domain.ErrUnsupportedType, ext, strings.Join(r.SupportedExtensions(), ", "))
	}

	text, err := n.Normalise(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", raw.Name, err)
	}
	logger.Debug("extracted %d bytes of text from %s", len(text), raw.Name)
	return text, nil
}

// ExtractFile reads path and extracts its text.
func (r *Registry) ExtractFile(ctx context.Context, path string) (string, error) {
	if !r.Supports(path) {
		return r.Extract(ctx, &domain.RawDocument{Name: filepath.Base(path), Path: path})
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if r.maxLen > 0 && info.Size() > r.maxLen {
		return "", fmt.Errorf("%w: %s is %d bytes", domain.ErrFileTooLarge, path, info.Size())
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return r.Extract(ctx, &domain.RawDocument{
		Name:    filepath.Base(path),
		Path:    path,
		Content: content,
	})
}
