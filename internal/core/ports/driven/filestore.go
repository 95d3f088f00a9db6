package driven

import (
	"context"
	"io"
)

// FileStore keeps the original bytes of uploaded documents.
type FileStore interface {
	// Save writes r under a sanitised, unused variant of name and
	// returns the stored name. Uploads larger than limit bytes fail
	// with domain.ErrFileTooLarge and leave nothing behind.
	Save(ctx context.Context, name string, r io.Reader, limit int64) (string, error)

	// Path returns the on-disk path of a stored file.
	Path(name string) string

	// Exists reports whether a file is stored under name.
	Exists(name string) bool

	// Rename moves a stored file. It fails with domain.ErrNotFound when
	// oldName is missing and domain.ErrAlreadyExists when newName is taken.
	Rename(oldName, newName string) error

	// Remove deletes a stored file. Missing files are not an error.
	Remove(name string) error
}
