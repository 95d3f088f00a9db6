package domain

import (
	"path/filepath"
	"strings"
)

// RawDocument represents the bytes of an uploaded file before text extraction.
type RawDocument struct {
	// Name is the document name the text will be stored under.
	Name string

	// Path is the on-disk location, if the bytes came from a file.
	Path string

	// Content is the raw bytes.
	Content []byte
}

// Extension returns the lower-cased file extension of the document,
// taken from Path when set and from Name otherwise.
func (r *RawDocument) Extension() string {
	name := r.Path
	if name == "" {
		name = r.Name
	}
	return strings.ToLower(filepath.Ext(name))
}
