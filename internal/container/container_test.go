package container

import (
	"testing"

	"llm-proxy/internal/httpclient"
	"llm-proxy/internal/services"
	"llm-proxy/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestEnv sets up test environment variables
func setupTestEnv(t testing.TB) {
	t.Helper()
	t.Setenv("DATABASE_DSN", ":memory:")
	t.Setenv("PORT", "8001")
}

func TestBuildContainer(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)
	require.NotNil(t, container)
}

func TestBuildContainer_ConfigManagerResolution(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)

	var configManager types.ConfigManager
	err = container.Invoke(func(cm types.ConfigManager) {
		configManager = cm
	})
	require.NoError(t, err)
	assert.NotNil(t, configManager)
	assert.Equal(t, 8001, configManager.GetEffectiveServerConfig().Port)
}

func TestBuildContainer_ServiceResolution(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(
		clients *httpclient.UpstreamClients,
		logService *services.RequestLogService,
		streamLogger *services.StreamLogger,
	) {
		assert.NotNil(t, clients)
		assert.NotNil(t, logService)
		assert.NotNil(t, streamLogger)
	})
	require.NoError(t, err)
}
