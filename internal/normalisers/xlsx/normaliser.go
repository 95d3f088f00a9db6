// Package xlsx extracts cell text from Excel workbooks.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles XLSX workbooks.
type Normaliser struct{}

// New creates a new XLSX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".xlsx"}
}

// Normalise renders each sheet as a "Sheet: <name>" line followed by its
// non-empty rows, cells joined by tabs. Sheets are separated by a blank line.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	book, err := excelize.OpenReader(bytes.NewReader(raw.Content))
	if err != nil {
		return "", fmt.Errorf("%w: xlsx: %w", domain.ErrInvalidInput, err)
	}
	defer book.Close()

	var sheets []string
	for _, name := range book.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := book.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("%w: xlsx sheet %q: %w", domain.ErrInvalidInput, name, err)
		}

		lines := []string{"Sheet: " + name}
		for _, row := range rows {
			line := strings.TrimRight(strings.Join(row, "\t"), "\t")
			if strings.TrimSpace(line) != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 1 {
			sheets = append(sheets, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(sheets, "\n\n"), nil
}
