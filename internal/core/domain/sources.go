package domain

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// SourceSeparator joins document names inside a history source-set.
const SourceSeparator = ", "

// JoinSources builds the canonical source-set for a list of document names:
// blanks dropped, duplicates removed, sorted, joined with SourceSeparator.
func JoinSources(names []string) string {
	seen := make(map[string]struct{}, len(names))
	set := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		set = append(set, n)
	}
	sort.Strings(set)
	return strings.Join(set, SourceSeparator)
}

// SplitSources parses a source-set back into document names.
func SplitSources(set string) []string {
	if strings.TrimSpace(set) == "" {
		return nil
	}
	parts := strings.Split(set, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// RenameInSources replaces oldName with newName in a source-set.
// The second return value reports whether the set contained oldName.
func RenameInSources(set, oldName, newName string) (string, bool) {
	names := SplitSources(set)
	found := false
	for i, n := range names {
		if n == oldName {
			names[i] = newName
			found = true
		}
	}
	if !found {
		return set, false
	}
	return JoinSources(names), true
}

// RemoveFromSources drops name from a source-set.
// The second return value reports whether the set contained name.
func RemoveFromSources(set, name string) (string, bool) {
	names := SplitSources(set)
	kept := names[:0]
	found := false
	for _, n := range names {
		if n == name {
			found = true
			continue
		}
		kept = append(kept, n)
	}
	if !found {
		return set, false
	}
	return JoinSources(kept), true
}

// ValidateDocumentName checks that name can be stored as a chunk source
// and round-trip through a source-set.
func ValidateDocumentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: document name is required", ErrInvalidInput)
	}
	if name != strings.TrimSpace(name) {
		return fmt.Errorf("%w: document name %q has surrounding whitespace", ErrInvalidInput, name)
	}
	if strings.Contains(name, ",") {
		return fmt.Errorf("%w: document name %q must not contain a comma", ErrInvalidInput, name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: document name %q must not contain a path separator", ErrInvalidInput, name)
	}
	return nil
}

// SanitizeDocumentName turns an uploaded file name into a valid document
// name: directories are stripped, ".." removed and commas replaced.
func SanitizeDocumentName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := filepath.Base(name)
	if base == "." || base == "/" {
		base = ""
	}
	base = strings.ReplaceAll(base, "..", "")
	base = strings.ReplaceAll(base, ",", "_")
	base = strings.TrimSpace(base)
	if base == "" {
		return "upload"
	}
	return base
}
