package config

import (
	"llm-proxy/internal/types"
)

// MockConfig implements types.ConfigManager for testing.
type MockConfig struct {
	UpstreamBaseURL        string
	EnableStreamToolParser bool
	RedisDSN               string
	DatabaseDSN            string
}

func (m *MockConfig) GetEffectiveServerConfig() types.ServerConfig {
	return types.ServerConfig{
		Port:                    8000,
		Host:                    "0.0.0.0",
		ReadTimeout:             120,
		WriteTimeout:            600,
		IdleTimeout:             120,
		GracefulShutdownTimeout: 10,
	}
}

func (m *MockConfig) GetUpstreamConfig() types.UpstreamConfig {
	baseURL := m.UpstreamBaseURL
	if baseURL == "" {
		baseURL = "http://localhost:30000/v1"
	}
	return types.UpstreamConfig{
		BaseURL:                baseURL,
		RequestTimeout:         300,
		ConnectTimeout:         15,
		MaxIdleConns:           100,
		MaxIdleConnsPerHost:    50,
		EnableStreamToolParser: m.EnableStreamToolParser,
	}
}

func (m *MockConfig) GetCORSConfig() types.CORSConfig {
	return types.CORSConfig{
		Enabled:          false,
		AllowedOrigins:   []string{},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}
}

func (m *MockConfig) GetPerformanceConfig() types.PerformanceConfig {
	return types.PerformanceConfig{
		MaxConcurrentRequests: 100,
	}
}

func (m *MockConfig) GetLogConfig() types.LogConfig {
	return types.LogConfig{
		Level:      "info",
		Format:     "text",
		EnableFile: false,
		FilePath:   "./data/logs/app.log",
	}
}

func (m *MockConfig) GetDatabaseConfig() types.DatabaseConfig {
	dsn := m.DatabaseDSN
	if dsn == "" {
		dsn = ":memory:"
	}
	return types.DatabaseConfig{DSN: dsn}
}

func (m *MockConfig) GetRedisDSN() string {
	return m.RedisDSN
}

func (m *MockConfig) Validate() error {
	return nil
}

func (m *MockConfig) DisplayServerConfig() {}
