// Package config provides environment-based configuration management.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"llm-proxy/internal/types"
	"llm-proxy/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Manager implements types.ConfigManager backed by environment variables.
type Manager struct {
	serverConfig      types.ServerConfig
	upstreamConfig    types.UpstreamConfig
	corsConfig        types.CORSConfig
	performanceConfig types.PerformanceConfig
	logConfig         types.LogConfig
	databaseConfig    types.DatabaseConfig
	redisDSN          string
}

// NewManager creates a configuration manager, loading .env if present.
func NewManager() (types.ConfigManager, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	manager := &Manager{}
	if err := manager.ReloadConfig(); err != nil {
		return nil, err
	}

	return manager, nil
}

// ReloadConfig reads all configuration from the environment and validates it.
func (m *Manager) ReloadConfig() error {
	m.serverConfig = types.ServerConfig{
		Port:                    parseInteger(os.Getenv("PORT"), 8000),
		Host:                    getEnvOrDefault("HOST", "0.0.0.0"),
		ReadTimeout:             parseInteger(os.Getenv("SERVER_READ_TIMEOUT"), 120),
		WriteTimeout:            parseInteger(os.Getenv("SERVER_WRITE_TIMEOUT"), 600),
		IdleTimeout:             parseInteger(os.Getenv("SERVER_IDLE_TIMEOUT"), 120),
		GracefulShutdownTimeout: parseInteger(os.Getenv("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT"), 10),
	}

	m.upstreamConfig = types.UpstreamConfig{
		BaseURL:                strings.TrimSuffix(getEnvOrDefault("UPSTREAM_BASE_URL", "http://localhost:30000/v1"), "/"),
		RequestTimeout:         parseInteger(os.Getenv("REQUEST_TIMEOUT"), 300),
		ConnectTimeout:         parseInteger(os.Getenv("CONNECT_TIMEOUT"), 15),
		MaxIdleConns:           parseInteger(os.Getenv("MAX_IDLE_CONNS"), 100),
		MaxIdleConnsPerHost:    parseInteger(os.Getenv("MAX_IDLE_CONNS_PER_HOST"), 50),
		EnableStreamToolParser: parseBoolean(os.Getenv("ENABLE_STREAMING_TOOL_PARSER"), false),
	}

	m.corsConfig = types.CORSConfig{
		Enabled:          parseBoolean(os.Getenv("ENABLE_CORS"), true),
		AllowedOrigins:   utils.SplitAndTrim(getEnvOrDefault("ALLOWED_ORIGINS", "*"), ","),
		AllowedMethods:   utils.SplitAndTrim(getEnvOrDefault("ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"), ","),
		AllowedHeaders:   utils.SplitAndTrim(getEnvOrDefault("ALLOWED_HEADERS", "*"), ","),
		AllowCredentials: parseBoolean(os.Getenv("ALLOW_CREDENTIALS"), false),
	}

	m.performanceConfig = types.PerformanceConfig{
		MaxConcurrentRequests: parseInteger(os.Getenv("MAX_CONCURRENT_REQUESTS"), 100),
	}

	m.logConfig = types.LogConfig{
		Level:            getEnvOrDefault("LOG_LEVEL", "info"),
		Format:           getEnvOrDefault("LOG_FORMAT", "text"),
		EnableFile:       parseBoolean(os.Getenv("LOG_ENABLE_FILE"), false),
		FilePath:         getEnvOrDefault("LOG_FILE_PATH", "./data/logs/app.log"),
		EnableChunkDebug: parseBoolean(os.Getenv("LOG_ENABLE_CHUNK_DEBUG"), false),
	}

	m.databaseConfig = types.DatabaseConfig{
		DSN: getEnvOrDefault("DATABASE_DSN", "./data/llm-proxy.db"),
	}

	m.redisDSN = os.Getenv("REDIS_DSN")

	return m.Validate()
}

// Validate checks the loaded configuration for consistency.
func (m *Manager) Validate() error {
	if m.serverConfig.Port < 1 || m.serverConfig.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", m.serverConfig.Port)
	}

	if m.upstreamConfig.BaseURL == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	parsed, err := url.Parse(m.upstreamConfig.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL must be a valid absolute URL, got %q", m.upstreamConfig.BaseURL)
	}

	if m.upstreamConfig.RequestTimeout < 1 {
		return fmt.Errorf("request timeout cannot be less than 1 second")
	}

	if m.performanceConfig.MaxConcurrentRequests < 1 {
		return fmt.Errorf("max concurrent requests cannot be less than 1")
	}

	return nil
}

// GetEffectiveServerConfig returns the server configuration.
func (m *Manager) GetEffectiveServerConfig() types.ServerConfig {
	return m.serverConfig
}

// GetUpstreamConfig returns the upstream configuration.
func (m *Manager) GetUpstreamConfig() types.UpstreamConfig {
	return m.upstreamConfig
}

// GetCORSConfig returns the CORS configuration.
func (m *Manager) GetCORSConfig() types.CORSConfig {
	return m.corsConfig
}

// GetPerformanceConfig returns the performance configuration.
func (m *Manager) GetPerformanceConfig() types.PerformanceConfig {
	return m.performanceConfig
}

// GetLogConfig returns the log configuration.
func (m *Manager) GetLogConfig() types.LogConfig {
	return m.logConfig
}

// GetDatabaseConfig returns the database configuration.
func (m *Manager) GetDatabaseConfig() types.DatabaseConfig {
	return m.databaseConfig
}

// GetRedisDSN returns the Redis DSN. Empty means in-memory storage.
func (m *Manager) GetRedisDSN() string {
	return m.redisDSN
}

// DisplayServerConfig logs the effective configuration at startup.
func (m *Manager) DisplayServerConfig() {
	storageType := "memory"
	if m.redisDSN != "" {
		storageType = "redis"
	}

	logrus.Info("Server configuration:")
	logrus.Infof("  Listen: %s:%d", m.serverConfig.Host, m.serverConfig.Port)
	logrus.Infof("  Upstream: %s", m.upstreamConfig.BaseURL)
	logrus.Infof("  Request timeout: %ds", m.upstreamConfig.RequestTimeout)
	logrus.Infof("  Streaming tool parser: %t", m.upstreamConfig.EnableStreamToolParser)
	logrus.Infof("  Max concurrent requests: %d", m.performanceConfig.MaxConcurrentRequests)
	logrus.Infof("  Storage: %s", storageType)
	logrus.Infof("  CORS enabled: %t", m.corsConfig.Enabled)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInteger(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBoolean(value string, defaultValue bool) bool {
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
