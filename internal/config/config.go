package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Persistence backends
const (
	BackendRedis  = "redis"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Codecs
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

// Environment overrides applied by ApplyEnv
const (
	EnvRedisURL  = "LIVESTORE_REDIS_URL"
	EnvNamespace = "LIVESTORE_NAMESPACE"
)

const (
	defaultNamespace = "default"
	defaultRedisURL  = "redis://localhost:6379/0"
)

// Config represents the top-level livestore.yml configuration
type Config struct {
	Version     string            `yaml:"version"`
	Namespace   string            `yaml:"namespace,omitempty"` // Prefix isolating deployments sharing a Redis
	Redis       RedisConfig       `yaml:"redis,omitempty"`
	Persistence PersistenceConfig `yaml:"persistence,omitempty"`
	Transport   TransportConfig   `yaml:"transport,omitempty"`
	Codec       string            `yaml:"codec,omitempty"` // json or msgpack
}

// RedisConfig specifies the Redis connection shared by redis backends
type RedisConfig struct {
	URL string `yaml:"url,omitempty"`
}

// PersistenceConfig specifies the per-context store
type PersistenceConfig struct {
	Backend string        `yaml:"backend,omitempty"` // redis, file, memory or none
	Scope   string        `yaml:"scope,omitempty"`   // Session identifier; defaults to the hostname
	Path    string        `yaml:"path,omitempty"`    // Required for the file backend
	TTL     time.Duration `yaml:"ttl,omitempty"`     // Redis backend only, 0 = no expiry
}

// TransportConfig specifies the broadcast transport
type TransportConfig struct {
	Backend string `yaml:"backend,omitempty"` // redis, memory or none
}

// Default returns the configuration used when no livestore.yml exists
func Default() *Config {
	cfg := &Config{Version: "1.0"}
	// Defaults never fail validation
	_ = cfg.Validate()
	return cfg
}

// Validate applies defaults and performs strict validation on the configuration
func (c *Config) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Apply defaults
	if c.Namespace == "" {
		c.Namespace = defaultNamespace
	}
	if c.Codec == "" {
		c.Codec = CodecJSON
	}
	if c.Persistence.Backend == "" {
		c.Persistence.Backend = BackendRedis
	}
	if c.Transport.Backend == "" {
		c.Transport.Backend = BackendRedis
	}

	switch c.Codec {
	case CodecJSON, CodecMsgpack:
	default:
		return fmt.Errorf("invalid codec: %s (must be 'json' or 'msgpack')", c.Codec)
	}

	switch c.Persistence.Backend {
	case BackendRedis, BackendMemory, BackendNone:
	case BackendFile:
		if c.Persistence.Path == "" {
			return fmt.Errorf("persistence.path is required for the file backend")
		}
	default:
		return fmt.Errorf("invalid persistence backend: %s (must be 'redis', 'file', 'memory', or 'none')", c.Persistence.Backend)
	}

	if c.Persistence.TTL < 0 {
		return fmt.Errorf("persistence.ttl must be >= 0, got %v", c.Persistence.TTL)
	}

	switch c.Transport.Backend {
	case BackendRedis, BackendMemory, BackendNone:
	default:
		return fmt.Errorf("invalid transport backend: %s (must be 'redis', 'memory', or 'none')", c.Transport.Backend)
	}

	if c.UsesRedis() && c.Redis.URL == "" {
		c.Redis.URL = defaultRedisURL
	}

	return nil
}

// UsesRedis reports whether any backend needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.Persistence.Backend == BackendRedis || c.Transport.Backend == BackendRedis
}

// ApplyEnv overrides fields from LIVESTORE_* environment variables
func (c *Config) ApplyEnv() {
	if url := os.Getenv(EnvRedisURL); url != "" {
		c.Redis.URL = url
	}
	if ns := os.Getenv(EnvNamespace); ns != "" {
		c.Namespace = ns
	}
}

// Load reads and validates livestore.yml from the specified path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not exist
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}
