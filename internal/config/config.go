package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tripplanner/internal/models"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRIPPLANNER_"

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	// Start with default configuration
	config := models.NewDefaultConfig()

	// Load from file if provided and exists
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnvironment(config)

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// warnUnknownKeys logs a warning for each key in data that no config field
// maps to. The main decoder ignores such keys, so the service still starts.
func warnUnknownKeys(data []byte) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var probe models.Config
	err := dec.Decode(&probe)

	var typeErr *yaml.TypeError
	if !errors.As(err, &typeErr) {
		return
	}
	for _, msg := range typeErr.Errors {
		if strings.Contains(msg, "not found in type") {
			slog.Warn("Ignoring unknown config key", "detail", msg)
		}
	}
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	warnUnknownKeys(data)
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment loads configuration from environment variables.
// Values that fail to parse are logged and skipped.
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	envInt("PORT", &config.Server.Port)
	envString("HOST", &config.Server.Host)
	envDuration("READ_TIMEOUT", &config.Server.ReadTimeout)
	envDuration("WRITE_TIMEOUT", &config.Server.WriteTimeout)
	envDuration("IDLE_TIMEOUT", &config.Server.IdleTimeout)
	envBool("TLS_ENABLED", &config.Server.TLSEnabled)
	envString("TLS_CERT_FILE", &config.Server.TLSCertFile)
	envString("TLS_KEY_FILE", &config.Server.TLSKeyFile)
	envBool("CORS_ENABLED", &config.Server.CORS.Enabled)
	envList("CORS_ALLOWED_ORIGINS", &config.Server.CORS.AllowedOrigins)

	// Storage configuration
	envString("STORAGE_TYPE", &config.Storage.Type)
	envString("STORAGE_PATH", &config.Storage.Path)
	envDuration("STORAGE_CACHE_TTL", &config.Storage.CacheTTL)
	envString("DATABASE_DSN", &config.Storage.Database.DSN)
	envInt("DATABASE_MAX_OPEN_CONNS", &config.Storage.Database.MaxOpenConns)
	envInt("DATABASE_MAX_IDLE_CONNS", &config.Storage.Database.MaxIdleConns)
	envDuration("DATABASE_CONN_MAX_LIFETIME", &config.Storage.Database.ConnMaxLifetime)

	// Security configuration
	envBool("ENABLE_AUTH", &config.Security.EnableAuth)
	envString("DEMO_USER_EMAIL", &config.Security.DemoUser.Email)
	envString("DEMO_USER_NAME", &config.Security.DemoUser.Name)
	envBool("RATE_LIMIT_ENABLED", &config.Security.RateLimit.Enabled)
	envDuration("RATE_LIMIT_CLEANUP_INTERVAL", &config.Security.RateLimit.CleanupInterval)
	envDuration("RATE_LIMIT_CHAT_WINDOW", &config.Security.RateLimit.Chat.Window)
	envInt("RATE_LIMIT_CHAT_MAX_REQUESTS", &config.Security.RateLimit.Chat.MaxRequests)
	envDuration("RATE_LIMIT_SEARCH_WINDOW", &config.Security.RateLimit.Search.Window)
	envInt("RATE_LIMIT_SEARCH_MAX_REQUESTS", &config.Security.RateLimit.Search.MaxRequests)

	// Logging configuration
	envString("LOG_LEVEL", &config.Logging.Level)
	envString("LOG_FORMAT", &config.Logging.Format)
	envString("LOG_OUTPUT", &config.Logging.Output)
	envString("LOG_FILE_PATH", &config.Logging.FilePath)
	envInt("LOG_MAX_SIZE", &config.Logging.MaxSize)
	envInt("LOG_MAX_BACKUPS", &config.Logging.MaxBackups)
	envInt("LOG_MAX_AGE", &config.Logging.MaxAge)
	envBool("LOG_COMPRESS", &config.Logging.Compress)

	// Cache configuration
	envBool("CACHE_ENABLED", &config.Cache.Enabled)
	envString("CACHE_TYPE", &config.Cache.Type)
	envDuration("CACHE_TTL", &config.Cache.TTL)
	envString("REDIS_ADDR", &config.Cache.Redis.Addr)
	envString("REDIS_PASSWORD", &config.Cache.Redis.Password)
	envInt("REDIS_DB", &config.Cache.Redis.DB)
	envInt("REDIS_POOL_SIZE", &config.Cache.Redis.PoolSize)
	envString("REDIS_KEY_PREFIX", &config.Cache.Redis.KeyPrefix)
	envInt("MEMORY_CACHE_MAX_SIZE", &config.Cache.Memory.MaxSize)
	envDuration("MEMORY_CACHE_CLEANUP_INTERVAL", &config.Cache.Memory.CleanupInterval)

	// Metrics configuration
	envBool("METRICS_ENABLED", &config.Metrics.Enabled)
	envString("METRICS_PATH", &config.Metrics.Path)
	envInt("METRICS_PORT", &config.Metrics.Port)

	// Observability configuration
	envString("SERVICE_NAME", &config.Observability.ServiceName)
	envString("ENVIRONMENT", &config.Observability.Environment)
	envBool("TRACING_ENABLED", &config.Observability.Tracing.Enabled)
	envString("TRACING_EXPORTER", &config.Observability.Tracing.Exporter)
	envString("OTLP_ENDPOINT", &config.Observability.Tracing.OTLPEndpoint)
	envFloat("TRACING_SAMPLE_RATE", &config.Observability.Tracing.SampleRate)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func invalidEnv(name, value string, err error) {
	slog.Warn("Ignoring invalid environment override",
		"variable", EnvPrefix+name,
		"value", value,
		"error", err)
}

func envString(name string, dst *string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envList(name string, dst *[]string) {
	v, ok := lookup(name)
	if !ok {
		return
	}
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}

func envInt(name string, dst *int) {
	if v, ok := lookup(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			invalidEnv(name, v, err)
			return
		}
		*dst = n
	}
}

func envFloat(name string, dst *float64) {
	if v, ok := lookup(name); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			invalidEnv(name, v, err)
			return
		}
		*dst = f
	}
}

func envBool(name string, dst *bool) {
	if v, ok := lookup(name); ok {
		*dst = strings.ToLower(v) == "true"
	}
}

func envDuration(name string, dst *time.Duration) {
	if v, ok := lookup(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			invalidEnv(name, v, err)
			return
		}
		*dst = d
	}
}

// SaveExample saves an example configuration file
func SaveExample(filePath string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	config := models.NewDefaultConfig()

	// Token auth with an embedded database
	config.Security.EnableAuth = true
	config.Storage.Type = models.StorageTypeSQLite
	config.Storage.Database.DSN = "./data/tripplanner.db"

	// Example TLS configuration
	config.Server.TLSEnabled = false
	config.Server.TLSCertFile = "/path/to/cert.pem"
	config.Server.TLSKeyFile = "/path/to/key.pem"

	// Example Redis cache (switch type to "redis" to use it)
	config.Cache.Redis.Addr = "localhost:6379"

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
