package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_HomeEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Context:")

	_, err = os.Stat(filepath.Join(dir, driven.PromptAnswer+".txt"))
	assert.NoError(t, err)
}

func TestPromptStore_Load_CustomFile(t *testing.T) {
	dir := t.TempDir()
	custom := "Context: %s\nQ: %s\nA:"
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptAnswer+".txt"), []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_MissingPlaceholdersFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptAnswer+".txt"), []byte("just answer"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	def, _ := DefaultPrompt(driven.PromptAnswer)
	assert.Equal(t, def, prompt)
}

func TestPromptStore_Load_Unknown(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nope")
	assert.Error(t, err)
}

func TestPromptStore_Reload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	updated := "C=%s Q=%s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptAnswer+".txt"), []byte(updated), 0600))

	cached, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.NotEqual(t, updated, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, updated, fresh)
}

func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Load(driven.PromptAnswer)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
