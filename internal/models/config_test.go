package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	// Test server defaults
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 30*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, config.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, config.Server.IdleTimeout)
	assert.False(t, config.Server.TLSEnabled)

	// Test storage defaults
	assert.Equal(t, "json", config.Storage.Type)
	assert.Equal(t, "./data/tripplanner.json", config.Storage.Path)
	assert.Equal(t, 25, config.Storage.Database.MaxOpenConns)
	assert.Equal(t, 5, config.Storage.Database.MaxIdleConns)

	// Test security defaults
	assert.False(t, config.Security.EnableAuth)
	assert.NotEmpty(t, config.Security.DemoUser.Email)
	assert.True(t, config.Security.RateLimit.Enabled)
	assert.Equal(t, 5*time.Minute, config.Security.RateLimit.CleanupInterval)
	assert.Equal(t, time.Minute, config.Security.RateLimit.Chat.Window)
	assert.Equal(t, 10, config.Security.RateLimit.Chat.MaxRequests)
	assert.Equal(t, time.Minute, config.Security.RateLimit.Search.Window)
	assert.Equal(t, 30, config.Security.RateLimit.Search.MaxRequests)

	// Test logging defaults
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
	assert.Equal(t, "stdout", config.Logging.Output)
	assert.Equal(t, 100, config.Logging.MaxSize)
	assert.Equal(t, 3, config.Logging.MaxBackups)
	assert.Equal(t, 28, config.Logging.MaxAge)
	assert.True(t, config.Logging.Compress)

	// Test cache defaults
	assert.True(t, config.Cache.Enabled)
	assert.Equal(t, "memory", config.Cache.Type)
	assert.Equal(t, 5*time.Minute, config.Cache.TTL)
	assert.Equal(t, 1000, config.Cache.Memory.MaxSize)
	assert.Equal(t, 10*time.Minute, config.Cache.Memory.CleanupInterval)

	// Test metrics defaults
	assert.True(t, config.Metrics.Enabled)
	assert.Equal(t, "/metrics", config.Metrics.Path)
	assert.Equal(t, 9090, config.Metrics.Port)

	// Test observability defaults
	assert.Equal(t, "tripplanner", config.Observability.ServiceName)
	assert.Equal(t, "development", config.Observability.Environment)
	assert.False(t, config.Observability.Tracing.Enabled)
	assert.Equal(t, "stdout", config.Observability.Tracing.Exporter)
	assert.Equal(t, 1.0, config.Observability.Tracing.SampleRate)

	assert.NoError(t, config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{
			name:   "valid default config",
			mutate: func(c *Config) {},
		},
		{
			name:     "invalid server config",
			mutate:   func(c *Config) { c.Server.Port = -1 },
			errorMsg: "invalid server config",
		},
		{
			name:     "invalid storage config",
			mutate:   func(c *Config) { c.Storage.Type = "invalid-type" },
			errorMsg: "invalid storage config",
		},
		{
			name:     "invalid security config",
			mutate:   func(c *Config) { c.Security.RateLimit.Chat.MaxRequests = 0 },
			errorMsg: "invalid security config",
		},
		{
			name:     "invalid logging config",
			mutate:   func(c *Config) { c.Logging.Level = "verbose" },
			errorMsg: "invalid logging config",
		},
		{
			name:     "invalid cache config",
			mutate:   func(c *Config) { c.Cache.Type = "memcached" },
			errorMsg: "invalid cache config",
		},
		{
			name:     "invalid metrics config",
			mutate:   func(c *Config) { c.Metrics.Path = "" },
			errorMsg: "invalid metrics config",
		},
		{
			name:     "invalid observability config",
			mutate:   func(c *Config) { c.Observability.ServiceName = "" },
			errorMsg: "invalid observability config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			err := config.Validate()

			if tt.errorMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      ServerConfig
		expectError bool
	}{
		{name: "valid", config: ServerConfig{Port: 8080, Host: "localhost"}},
		{name: "port zero", config: ServerConfig{Port: 0, Host: "localhost"}, expectError: true},
		{name: "port too large", config: ServerConfig{Port: 70000, Host: "localhost"}, expectError: true},
		{name: "empty host", config: ServerConfig{Port: 8080}, expectError: true},
		{name: "negative read timeout", config: ServerConfig{Port: 8080, Host: "h", ReadTimeout: -time.Second}, expectError: true},
		{name: "tls without cert", config: ServerConfig{Port: 8080, Host: "h", TLSEnabled: true, TLSKeyFile: "k"}, expectError: true},
		{name: "tls without key", config: ServerConfig{Port: 8080, Host: "h", TLSEnabled: true, TLSCertFile: "c"}, expectError: true},
		{name: "tls complete", config: ServerConfig{Port: 8080, Host: "h", TLSEnabled: true, TLSCertFile: "c", TLSKeyFile: "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStorageConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      StorageConfig
		expectError bool
	}{
		{name: "json with path", config: StorageConfig{Type: "json", Path: "./data.json"}},
		{name: "json without path", config: StorageConfig{Type: "json"}, expectError: true},
		{name: "memory", config: StorageConfig{Type: "memory"}},
		{name: "sqlite with dsn", config: StorageConfig{Type: "sqlite", Database: DatabaseConfig{DSN: "file.db"}}},
		{name: "sqlite without dsn", config: StorageConfig{Type: "sqlite"}, expectError: true},
		{name: "postgres without dsn", config: StorageConfig{Type: "postgres"}, expectError: true},
		{name: "unknown", config: StorageConfig{Type: "mongo"}, expectError: true},
		{name: "negative ttl", config: StorageConfig{Type: "memory", CacheTTL: -time.Second}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSecurityConfig_Validate(t *testing.T) {
	valid := func() SecurityConfig { return NewDefaultConfig().Security }

	t.Run("defaults", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("demo user required without auth", func(t *testing.T) {
		cfg := valid()
		cfg.DemoUser.Email = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("demo user optional with auth", func(t *testing.T) {
		cfg := valid()
		cfg.EnableAuth = true
		cfg.DemoUser.Email = ""
		assert.NoError(t, cfg.Validate())
	})

	t.Run("zero window", func(t *testing.T) {
		cfg := valid()
		cfg.RateLimit.Search.Window = 0
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "search policy")
	})

	t.Run("zero cleanup interval", func(t *testing.T) {
		cfg := valid()
		cfg.RateLimit.CleanupInterval = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("disabled limiter skips policy checks", func(t *testing.T) {
		cfg := valid()
		cfg.RateLimit.Enabled = false
		cfg.RateLimit.Chat = RateLimitPolicyConfig{}
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoggingConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      LoggingConfig
		expectError bool
	}{
		{name: "valid", config: LoggingConfig{Level: "info", Format: "json", Output: "stdout"}},
		{name: "text", config: LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}},
		{name: "bad level", config: LoggingConfig{Level: "trace", Format: "json", Output: "stdout"}, expectError: true},
		{name: "bad format", config: LoggingConfig{Level: "info", Format: "xml", Output: "stdout"}, expectError: true},
		{name: "bad output", config: LoggingConfig{Level: "info", Format: "json", Output: "syslog"}, expectError: true},
		{name: "file without path", config: LoggingConfig{Level: "info", Format: "json", Output: "file"}, expectError: true},
		{name: "file with path", config: LoggingConfig{Level: "info", Format: "json", Output: "file", FilePath: "/tmp/x.log"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCacheConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      CacheConfig
		expectError bool
	}{
		{name: "disabled", config: CacheConfig{Enabled: false, Type: "bogus"}},
		{name: "memory", config: CacheConfig{Enabled: true, Type: "memory", TTL: time.Minute}},
		{name: "redis with addr", config: CacheConfig{Enabled: true, Type: "redis", Redis: RedisConfig{Addr: "localhost:6379"}}},
		{name: "redis without addr", config: CacheConfig{Enabled: true, Type: "redis"}, expectError: true},
		{name: "negative ttl", config: CacheConfig{Enabled: true, Type: "memory", TTL: -time.Minute}, expectError: true},
		{name: "unknown type", config: CacheConfig{Enabled: true, Type: "memcached"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMetricsConfig_Validate(t *testing.T) {
	assert.NoError(t, (&MetricsConfig{Enabled: false}).Validate())
	assert.NoError(t, (&MetricsConfig{Enabled: true, Path: "/metrics", Port: 9090}).Validate())
	assert.Error(t, (&MetricsConfig{Enabled: true, Port: 9090}).Validate())
	assert.Error(t, (&MetricsConfig{Enabled: true, Path: "/metrics", Port: 0}).Validate())
}

func TestObservabilityConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      ObservabilityConfig
		expectError bool
	}{
		{name: "tracing disabled", config: ObservabilityConfig{ServiceName: "svc"}},
		{name: "missing service name", config: ObservabilityConfig{}, expectError: true},
		{
			name:   "stdout exporter",
			config: ObservabilityConfig{ServiceName: "svc", Tracing: TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: 0.5}},
		},
		{
			name:        "otlp without endpoint",
			config:      ObservabilityConfig{ServiceName: "svc", Tracing: TracingConfig{Enabled: true, Exporter: "otlp", SampleRate: 1}},
			expectError: true,
		},
		{
			name:        "unknown exporter",
			config:      ObservabilityConfig{ServiceName: "svc", Tracing: TracingConfig{Enabled: true, Exporter: "zipkin"}},
			expectError: true,
		},
		{
			name:        "sample rate out of range",
			config:      ObservabilityConfig{ServiceName: "svc", Tracing: TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: 1.5}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
