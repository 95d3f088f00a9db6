package normalisers

import (
	"github.com/custodia-labs/docqa/internal/normalisers/csv"
	"github.com/custodia-labs/docqa/internal/normalisers/docx"
	"github.com/custodia-labs/docqa/internal/normalisers/html"
	"github.com/custodia-labs/docqa/internal/normalisers/markdown"
	"github.com/custodia-labs/docqa/internal/normalisers/pdf"
	"github.com/custodia-labs/docqa/internal/normalisers/plaintext"
	"github.com/custodia-labs/docqa/internal/normalisers/xlsx"
)

// RegisterDefaults registers all built-in normalisers with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(csv.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	r.Register(xlsx.New())
	r.Register(html.New())
}

// NewDefaultRegistry returns a registry with every built-in normaliser.
func NewDefaultRegistry(maxBytes int64) *Registry {
	r := NewRegistry(maxBytes)
	RegisterDefaults(r)
	return r
}
