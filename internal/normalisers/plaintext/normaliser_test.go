package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestNormaliser_SupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{".txt"}, New().SupportedExtensions())
}

func TestNormaliser_Normalise(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{"simple", []byte("hello world"), "hello world"},
		{"keeps newlines", []byte("a\n\nb\n"), "a\n\nb\n"},
		{"drops invalid utf8", []byte("ok\xff\xfe!"), "ok!"},
		{"strips bom", []byte("\xef\xbb\xbfhi"), "hi"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().Normalise(context.Background(), &domain.RawDocument{Name: "f.txt", Content: tt.content})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormaliser_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
