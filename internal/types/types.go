package types

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetUpstreamConfig() UpstreamConfig
	GetCORSConfig() CORSConfig
	GetPerformanceConfig() PerformanceConfig
	GetLogConfig() LogConfig
	GetDatabaseConfig() DatabaseConfig
	GetRedisDSN() string
	GetEffectiveServerConfig() ServerConfig
	Validate() error
	DisplayServerConfig()
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port                    int    `json:"port"`
	Host                    string `json:"host"`
	ReadTimeout             int    `json:"read_timeout"`
	WriteTimeout            int    `json:"write_timeout"`
	IdleTimeout             int    `json:"idle_timeout"`
	GracefulShutdownTimeout int    `json:"graceful_shutdown_timeout"`
}

// UpstreamConfig represents the inference server this proxy fronts.
type UpstreamConfig struct {
	// BaseURL is the upstream API base, e.g. "http://10.0.0.5:60000/v1".
	BaseURL string `json:"base_url"`
	// RequestTimeout bounds a whole upstream call, in seconds.
	RequestTimeout int `json:"request_timeout"`
	// ConnectTimeout bounds dialing the upstream, in seconds.
	ConnectTimeout int `json:"connect_timeout"`
	// MaxIdleConns and MaxIdleConnsPerHost size the shared connection pool.
	MaxIdleConns        int `json:"max_idle_conns"`
	MaxIdleConnsPerHost int `json:"max_idle_conns_per_host"`
	// EnableStreamToolParser toggles the streaming tool-call transformer.
	EnableStreamToolParser bool `json:"enable_stream_tool_parser"`
}

// CORSConfig represents CORS configuration
type CORSConfig struct {
	Enabled          bool     `json:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// PerformanceConfig represents performance configuration
type PerformanceConfig struct {
	MaxConcurrentRequests int `json:"max_concurrent_requests"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level            string `json:"level"`
	Format           string `json:"format"`
	EnableFile       bool   `json:"enable_file"`
	FilePath         string `json:"file_path"`
	EnableChunkDebug bool   `json:"enable_chunk_debug"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	DSN string `json:"dsn"`
}
