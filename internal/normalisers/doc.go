// Package normalisers extracts plain text from uploaded files. Each
// sub-package handles one family of formats, selected by file extension.
//
// Normalisers are registered with a Registry at startup; see RegisterDefaults.
package normalisers
