package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerDefaults(t *testing.T) {
	manager := &Manager{}
	require.NoError(t, manager.ReloadConfig())

	assert.Equal(t, 8000, manager.GetEffectiveServerConfig().Port)
	assert.Equal(t, "0.0.0.0", manager.GetEffectiveServerConfig().Host)
	assert.Equal(t, "http://localhost:30000/v1", manager.GetUpstreamConfig().BaseURL)
	assert.Equal(t, 300, manager.GetUpstreamConfig().RequestTimeout)
	assert.False(t, manager.GetUpstreamConfig().EnableStreamToolParser)
	assert.Equal(t, 100, manager.GetPerformanceConfig().MaxConcurrentRequests)
	assert.Equal(t, "info", manager.GetLogConfig().Level)
	assert.Empty(t, manager.GetRedisDSN())
}

func TestManagerReloadConfig(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("UPSTREAM_BASE_URL", "http://10.0.0.5:60000/v1/")
	t.Setenv("ENABLE_STREAMING_TOOL_PARSER", "true")
	t.Setenv("MAX_CONCURRENT_REQUESTS", "200")

	manager := &Manager{}
	require.NoError(t, manager.ReloadConfig())

	assert.Equal(t, 8080, manager.GetEffectiveServerConfig().Port)
	assert.Equal(t, "127.0.0.1", manager.GetEffectiveServerConfig().Host)
	// Trailing slash is trimmed so path joins stay predictable.
	assert.Equal(t, "http://10.0.0.5:60000/v1", manager.GetUpstreamConfig().BaseURL)
	assert.True(t, manager.GetUpstreamConfig().EnableStreamToolParser)
	assert.Equal(t, 200, manager.GetPerformanceConfig().MaxConcurrentRequests)
}

func TestManagerValidation(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			setupEnv:    func(t *testing.T) {},
			expectError: false,
		},
		{
			name: "invalid port - too low",
			setupEnv: func(t *testing.T) {
				t.Setenv("PORT", "0")
			},
			expectError: true,
			errorMsg:    "port must be between",
		},
		{
			name: "invalid port - too high",
			setupEnv: func(t *testing.T) {
				t.Setenv("PORT", "70000")
			},
			expectError: true,
			errorMsg:    "port must be between",
		},
		{
			name: "invalid upstream URL",
			setupEnv: func(t *testing.T) {
				t.Setenv("UPSTREAM_BASE_URL", "not-a-url")
			},
			expectError: true,
			errorMsg:    "UPSTREAM_BASE_URL must be a valid absolute URL",
		},
		{
			name: "invalid max concurrent requests",
			setupEnv: func(t *testing.T) {
				t.Setenv("MAX_CONCURRENT_REQUESTS", "0")
			},
			expectError: true,
			errorMsg:    "max concurrent requests cannot be less than 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv(t)

			manager := &Manager{}
			err := manager.ReloadConfig()

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 42, parseInteger("42", 1))
	assert.Equal(t, 1, parseInteger("", 1))
	assert.Equal(t, 1, parseInteger("bogus", 1))

	assert.True(t, parseBoolean("true", false))
	assert.False(t, parseBoolean("", false))
	assert.False(t, parseBoolean("bogus", false))
}
