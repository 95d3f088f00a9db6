// Package chunker splits document text into bounded, boundary-aware chunks.
//
// Text is split on the coarsest separator first (paragraphs), and pieces
// that are still too long are split again on finer separators (lines, then
// words, then characters). Lengths are counted in runes.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 450

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 0

// DefaultSeparators are tried in order: paragraph, line, word, character.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Processor splits text into chunks.
type Processor struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator hierarchy. The empty separator,
// which splits into single characters, is always appended if missing.
func WithSeparators(seps ...string) Option {
	return func(p *Processor) {
		if len(seps) == 0 {
			return
		}
		p.separators = append([]string(nil), seps...)
		if seps[len(seps)-1] != "" {
			p.separators = append(p.separators, "")
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Split splits text with the given size and overlap and the default separators.
// The overlap is used as given, even when it is not smaller than chunkSize.
func Split(text string, chunkSize, overlap int) []string {
	return New(WithChunkSize(chunkSize), WithOverlap(overlap)).Split(text)
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured maximum chunk length.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Split returns the chunks of text in document order. Every chunk is
// non-blank and at most ChunkSize characters long before overlap is added.
// With overlap, each chunk after the first starts with the last Overlap
// characters of its predecessor as split, or all of it when it is shorter.
func (p *Processor) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	chunks := p.split(text, p.separators)
	if p.overlap == 0 || len(chunks) < 2 {
		return chunks
	}

	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		out[i] = tail(chunks[i-1], p.overlap) + chunks[i]
	}
	return out
}

func (p *Processor) split(text string, seps []string) []string {
	sep := seps[0]
	parts := splitOn(text, sep)
	sepLen := utf8.RuneCountInString(sep)

	var chunks []string
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			chunks = append(chunks, s)
		}
		buf.Reset()
		bufLen = 0
	}

	for _, part := range parts {
		partLen := utf8.RuneCountInString(part)
		switch {
		case bufLen == 0:
			buf.WriteString(part)
			bufLen = partLen
		case bufLen+sepLen+partLen <= p.chunkSize:
			buf.WriteString(sep)
			buf.WriteString(part)
			bufLen += sepLen + partLen
		default:
			flush()
			buf.WriteString(part)
			bufLen = partLen
		}
	}
	flush()

	if len(seps) == 1 {
		return chunks
	}

	refined := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if utf8.RuneCountInString(c) > p.chunkSize {
			refined = append(refined, p.split(c, seps[1:])...)
			continue
		}
		refined = append(refined, c)
	}
	return refined
}

// splitOn splits on sep; the empty separator yields single runes.
func splitOn(text, sep string) []string {
	if sep != "" {
		return strings.Split(text, sep)
	}
	parts := make([]string, 0, len(text))
	for _, r := range text {
		parts = append(parts, string(r))
	}
	return parts
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
