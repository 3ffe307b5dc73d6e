package config

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/aescanero/example-app/internal/errors"
)

// DefaultEnvFile is read, when present, before the process environment is parsed
const DefaultEnvFile = ".env"

// legacyAliases maps a variable to the FLASK_* name older deployment manifests still set.
// The legacy name is only consulted when the current name is unset.
var legacyAliases = map[string]string{
	"PORT":    "FLASK_PORT",
	"DEBUG":   "FLASK_DEBUG",
	"APP_ENV": "FLASK_ENV",
}

// Config holds all configuration for the example-app service
type Config struct {
	// Server configuration
	HTTPPort  int    `env:"PORT" envDefault:"5000"`
	GRPCPort  int    `env:"GRPC_PORT" envDefault:"9090"`
	Debug     bool   `env:"DEBUG" envDefault:"false"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	CORS      bool   `env:"CORS_ENABLED" envDefault:"false"`

	// Service identity reported by the HTTP payloads
	Service ServiceConfig

	// Redis configuration for the request event stream
	Redis RedisConfig

	// Request event publisher configuration
	Events EventsConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// ServiceConfig holds the values echoed back by / and /about
type ServiceConfig struct {
	Name        string `env:"SERVICE_NAME" envDefault:"example-app"`
	Version     string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
	Environment string `env:"APP_ENV" envDefault:"development"`
}

// RedisConfig holds Redis connection configuration.
// An empty Addr keeps request events in process.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// EventsConfig holds request event publisher configuration
type EventsConfig struct {
	Workers             int           `env:"EVENTS_WORKERS" envDefault:"2"`
	QueueSize           int           `env:"EVENTS_QUEUE_SIZE" envDefault:"1024"`
	StreamMaxLen        int64         `env:"EVENTS_STREAM_MAXLEN" envDefault:"10000"`
	HealthCheckInterval time.Duration `env:"EVENTS_HEALTH_INTERVAL" envDefault:"30s"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load reads the optional .env file and then configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", errors.ErrFailedToLoadEnv, err)
	}

	return LoadFromEnviron(os.Environ())
}

// LoadFromEnviron parses configuration from a KEY=VALUE list such as os.Environ()
func LoadFromEnviron(environ []string) (*Config, error) {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		vars[key] = value
	}

	return LoadFromMap(vars)
}

// LoadFromMap parses configuration from an explicit variable map
func LoadFromMap(vars map[string]string) (*Config, error) {
	resolved := make(map[string]string, len(vars))
	for k, v := range vars {
		resolved[k] = v
	}
	for name, legacy := range legacyAliases {
		if _, ok := resolved[name]; ok {
			continue
		}
		if v, ok := resolved[legacy]; ok {
			resolved[name] = v
		}
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: resolved}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("%w: invalid HTTP port: %d", errors.ErrInvalidConfig, c.HTTPPort)
	}
	// 0 disables the gRPC health server
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("%w: invalid gRPC port: %d", errors.ErrInvalidConfig, c.GRPCPort)
	}
	if c.GRPCPort != 0 && c.GRPCPort == c.HTTPPort {
		return fmt.Errorf("%w: HTTP and gRPC ports must differ", errors.ErrInvalidConfig)
	}

	if strings.TrimSpace(c.Service.Name) == "" {
		return fmt.Errorf("%w: service name is required", errors.ErrInvalidConfig)
	}

	if c.Events.Workers < 1 {
		return fmt.Errorf("%w: events worker count must be at least 1", errors.ErrInvalidConfig)
	}
	if c.Events.QueueSize < 1 {
		return fmt.Errorf("%w: events queue size must be at least 1", errors.ErrInvalidConfig)
	}
	if c.Events.HealthCheckInterval <= 0 {
		return fmt.Errorf("%w: events health interval must be positive", errors.ErrInvalidConfig)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("%w: %s (must be debug, info, warn, or error)", errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("%w: %s (must be json or console)", errors.ErrInvalidLogFormat, c.LogFormat)
	}

	return nil
}

// EffectiveLogLevel returns the log level, forced to debug when DEBUG is set
func (c *Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

// RedisEnabled reports whether request events go through Redis Streams
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

// GRPCEnabled reports whether the gRPC health server should be started
func (c *Config) GRPCEnabled() bool {
	return c.GRPCPort != 0
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
