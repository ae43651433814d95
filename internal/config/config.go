// ABOUTME: Configuration loading and parsing for authgate
// ABOUTME: Supports YAML files with environment variable expansion, plus pure-env loading

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config represents the complete authgate configuration
type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Environment string          `yaml:"environment"`
	Authority   AuthorityConfig `yaml:"authority"`
	Cache       CacheConfig     `yaml:"cache"`
	Audit       AuditConfig     `yaml:"audit"`
	Logging     LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// AuthorityConfig holds the remote authority endpoints. Each endpoint is
// independently overridable; unset values fall back to the core-service
// defaults.
type AuthorityConfig struct {
	IntrospectURL string        `yaml:"introspect_url"`
	PermissionURL string        `yaml:"permission_url"`
	RoleURL       string        `yaml:"role_url"`
	Timeout       time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// CacheConfig selects the introspection cache backend
type CacheConfig struct {
	Backend       string `yaml:"backend"` // "memory" (default) or "redis"
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// AuditConfig holds the decision audit log configuration. An empty path
// disables auditing.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Development reports whether the process runs in development mode, which
// disables the introspection cache.
func (c *Config) Development() bool {
	return c.Environment == "development"
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// envConfig mirrors Config for pure-environment deployments where no config
// file is mounted.
type envConfig struct {
	HTTPAddr      string        `env:"AUTHGATE_HTTP_ADDR,default=0.0.0.0:8080"`
	Environment   string        `env:"AUTHGATE_ENV,default=production"`
	IntrospectURL string        `env:"AUTHGATE_INTROSPECT_URL"`
	PermissionURL string        `env:"AUTHGATE_PERMISSION_URL"`
	RoleURL       string        `env:"AUTHGATE_ROLE_URL"`
	Timeout       time.Duration `env:"AUTHGATE_AUTHORITY_TIMEOUT,default=5s"`
	CacheBackend  string        `env:"AUTHGATE_CACHE_BACKEND,default=memory"`
	RedisAddr     string        `env:"AUTHGATE_REDIS_ADDR"`
	RedisPassword string        `env:"AUTHGATE_REDIS_PASSWORD"`
	RedisDB       int           `env:"AUTHGATE_REDIS_DB,default=0"`
	AuditPath     string        `env:"AUTHGATE_AUDIT_PATH"`
	LogLevel      string        `env:"AUTHGATE_LOG_LEVEL,default=info"`
	LogFormat     string        `env:"AUTHGATE_LOG_FORMAT,default=text"`
}

// FromEnv builds a Config from AUTHGATE_* environment variables.
func FromEnv() (*Config, error) {
	var env envConfig
	if err := envdecode.Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding environment: %w", err)
	}

	cfg := &Config{
		Server:      ServerConfig{HTTPAddr: env.HTTPAddr},
		Environment: env.Environment,
		Authority: AuthorityConfig{
			IntrospectURL: env.IntrospectURL,
			PermissionURL: env.PermissionURL,
			RoleURL:       env.RoleURL,
			Timeout:       env.Timeout,
		},
		Cache: CacheConfig{
			Backend:       env.CacheBackend,
			RedisAddr:     env.RedisAddr,
			RedisPassword: env.RedisPassword,
			RedisDB:       env.RedisDB,
		},
		Audit:   AuditConfig{Path: env.AuditPath},
		Logging: LoggingConfig{Level: env.LogLevel, Format: env.LogFormat},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	switch c.Environment {
	case "", "production", "development":
	default:
		return fmt.Errorf("environment must be 'production' or 'development', got %q", c.Environment)
	}

	switch c.Cache.Backend {
	case "", "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required when cache.backend is 'redis'")
		}
	default:
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got %q", c.Cache.Backend)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Authority.TimeoutRaw != "" {
		var err error
		cfg.Authority.Timeout, err = time.ParseDuration(cfg.Authority.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing authority.timeout %q: %w", cfg.Authority.TimeoutRaw, err)
		}
	}
	return nil
}
