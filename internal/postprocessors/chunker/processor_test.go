package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.ChunkSize())
		}
		if p.Overlap() != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.Overlap())
		}
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithChunkSize(500), WithOverlap(50))
		if p.ChunkSize() != 500 || p.Overlap() != 50 {
			t.Errorf("expected 500/50, got %d/%d", p.ChunkSize(), p.Overlap())
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.Overlap() != 150 {
			t.Errorf("expected overlap 150 to be kept, got %d", p.Overlap())
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		if p.ChunkSize() != DefaultChunkSize || p.Overlap() != DefaultChunkOverlap {
			t.Errorf("expected defaults, got %d/%d", p.ChunkSize(), p.Overlap())
		}
	})

	t.Run("separators always end with characters", func(t *testing.T) {
		p := New(WithSeparators("\n"))
		if got := p.separators[len(p.separators)-1]; got != "" {
			t.Errorf("expected trailing empty separator, got %q", got)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	if New().Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", New().Name())
	}
}

func TestSplit_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\n"} {
		if got := Split(in, 450, 0); len(got) != 0 {
			t.Errorf("expected no chunks for %q, got %v", in, got)
		}
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	got := Split("  hello world  ", 450, 0)
	if len(got) != 1 || got[0] != "hello world" {
		t.Errorf("expected one trimmed chunk, got %q", got)
	}
}

func TestSplit_Paragraphs(t *testing.T) {
	text := "Paragraph one.\n\nParagraph two is longer and talks about cats."

	got := Split(text, 30, 0)

	if len(got) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d: %q", len(got), got)
	}
	if !strings.Contains(got[0], "Paragraph one.") {
		t.Errorf("first chunk should contain the first paragraph, got %q", got[0])
	}
	for _, c := range got {
		if n := utf8.RuneCountInString(c); n > 30 {
			t.Errorf("chunk %q has %d characters, want <= 30", c, n)
		}
	}
}

func TestSplit_MergesParagraphsUpToLimit(t *testing.T) {
	got := Split("aaa\n\nbbb\n\nccc", 8, 0)

	want := []string{"aaa\n\nbbb", "ccc"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSplit_WholeLines(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, strings.Repeat(string(rune('a'+i)), 99))
	}
	text := strings.Join(lines, "\n")

	got := Split(text, 450, 0)

	for _, c := range got {
		if utf8.RuneCountInString(c) > 450 {
			t.Errorf("chunk exceeds 450 characters: %d", utf8.RuneCountInString(c))
		}
		for _, line := range strings.Split(c, "\n") {
			if len(line) != 99 {
				t.Errorf("chunk contains a partial line of length %d", len(line))
			}
		}
	}
}

func TestSplit_FallsBackToCharacters(t *testing.T) {
	text := strings.Repeat("x", 25)

	got := Split(text, 10, 0)

	want := []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSplit_MultiByte(t *testing.T) {
	text := strings.Repeat("é", 12)

	got := Split(text, 5, 0)

	for _, c := range got {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %q is not valid UTF-8", c)
		}
		if utf8.RuneCountInString(c) > 5 {
			t.Errorf("chunk %q exceeds 5 characters", c)
		}
	}
	if strings.Join(got, "") != text {
		t.Errorf("chunks do not cover the input")
	}
}

func TestSplit_SizeBound(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40) +
		"\n\n" + strings.Repeat("supercalifragilistic", 10) +
		"\nshort line\n\n" + strings.Repeat("lorem ipsum ", 30)

	for _, size := range []int{1, 7, 30, 100, 450} {
		for _, c := range Split(text, size, 0) {
			if n := utf8.RuneCountInString(c); n > size {
				t.Errorf("size %d: chunk has %d characters", size, n)
			}
			if strings.TrimSpace(c) == "" {
				t.Errorf("size %d: blank chunk", size)
			}
		}
	}
}

func TestSplit_Coverage(t *testing.T) {
	text := "Alpha beta gamma.\n\nDelta epsilon\nzeta eta theta iota kappa.\n\nLambda mu nu xi omicron pi rho."

	got := Split(text, 12, 0)

	normalise := func(s string) string { return strings.Join(strings.Fields(s), "") }
	if normalise(strings.Join(got, " ")) != normalise(text) {
		t.Errorf("chunks do not reconstruct the text:\n%q", got)
	}
}

func TestSplit_Overlap(t *testing.T) {
	text := strings.Repeat("word ", 60)
	const overlap = 5

	got := Split(text, 40, overlap)

	if len(got) < 2 {
		t.Fatalf("expected several chunks, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		prev := []rune(got[i-1])
		cur := []rune(got[i])
		if string(cur[:overlap]) != string(prev[len(prev)-overlap:]) {
			t.Errorf("chunk %d does not start with the tail of chunk %d: %q / %q", i, i-1, got[i-1], got[i])
		}
		if len(cur) > 40+overlap {
			t.Errorf("chunk %d exceeds size plus overlap: %d", i, len(cur))
		}
	}
}

func TestSplit_OverlapNotSmallerThanChunkSize(t *testing.T) {
	got := Split("aaaa bbbb cccc dddd", 5, 5)

	want := []string{"aaaa", "aaaabbbb", "bbbbcccc", "ccccdddd"}
	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %q", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestTail(t *testing.T) {
	if tail("abc", 5) != "abc" {
		t.Error("tail longer than string should return the string")
	}
	if tail("héllo", 3) != "llo" {
		t.Errorf("unexpected tail %q", tail("héllo", 3))
	}
}
