package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestMCPServeCmd_Flags(t *testing.T) {
	port := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "0", port.DefValue)

	host := mcpServeCmd.Flags().Lookup("host")
	require.NotNil(t, host)
	assert.Equal(t, "localhost", host.DefValue)
}

func TestMCPServeCmd_PortOutOfRange(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "mcp", "serve", "--port", "70000")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMCPServeCmd_RequiresQuestionService(t *testing.T) {
	SetServices(&Services{})
	defer SetServices(nil)

	_, err := execute(t, "mcp", "serve", "--port", "8080")

	assert.ErrorIs(t, err, mcp.ErrMissingQuestionService)
}

func TestMCPServeCmd_ListenError(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "mcp", "serve", "--host", "256.0.0.1", "--port", "8080")

	require.Error(t, err)
	assert.Contains(t, out, "MCP server listening on http://256.0.0.1:8080")
}
