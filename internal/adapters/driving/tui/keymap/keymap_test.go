package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
}

func TestDefaultKeyMap_QuitBinding(t *testing.T) {
	km := DefaultKeyMap()

	keys := km.Quit.Keys()
	assert.Contains(t, keys, "q")
	assert.Contains(t, keys, "ctrl+c")
}

func TestDefaultKeyMap_SubmitBinding(t *testing.T) {
	km := DefaultKeyMap()

	assert.Contains(t, km.Submit.Keys(), "enter")
	assert.Equal(t, "ask", km.Submit.Help().Desc)
}

func TestDefaultKeyMap_NavigationBindings(t *testing.T) {
	km := DefaultKeyMap()

	assert.Contains(t, km.Up.Keys(), "up")
	assert.Contains(t, km.Up.Keys(), "k")
	assert.Contains(t, km.Down.Keys(), "down")
	assert.Contains(t, km.Down.Keys(), "j")
	assert.Contains(t, km.ScrollUp.Keys(), "pgup")
	assert.Contains(t, km.ScrollDown.Keys(), "pgdown")
}

func TestDefaultKeyMap_DocumentBindings(t *testing.T) {
	km := DefaultKeyMap()

	assert.Contains(t, km.Scope.Keys(), " ")
	assert.Contains(t, km.Rename.Keys(), "r")
	assert.Contains(t, km.Delete.Keys(), "d")
	assert.Contains(t, km.Reload.Keys(), "ctrl+r")
}

func TestDefaultKeyMap_HistoryBindings(t *testing.T) {
	km := DefaultKeyMap()

	assert.Contains(t, km.Search.Keys(), "/")
	assert.Contains(t, km.Mode.Keys(), "tab")
}

func TestKeyMap_ShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.ShortHelp()

	assert.Len(t, help, 2)
}

func TestKeyMap_AskHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.AskHelp()

	require.Len(t, help, 4)
	assert.Equal(t, km.Submit, help[0])
}

func TestKeyMap_FullHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.FullHelp()

	require.Len(t, help, 5)
	for _, group := range help {
		assert.NotEmpty(t, group)
	}
}

func TestMatches(t *testing.T) {
	binding := key.NewBinding(key.WithKeys("a", "b"))

	assert.True(t, Matches("a", binding))
	assert.True(t, Matches("b", binding))
	assert.False(t, Matches("c", binding))
}
