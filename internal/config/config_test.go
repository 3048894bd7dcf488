package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "livestore.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `version: "1.0"
namespace: prod
redis:
  url: redis://cache:6379/2
persistence:
  backend: redis
  scope: tab-1
  ttl: 30m
transport:
  backend: redis
codec: msgpack
`)

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", config.Namespace)
	assert.Equal(t, "redis://cache:6379/2", config.Redis.URL)
	assert.Equal(t, BackendRedis, config.Persistence.Backend)
	assert.Equal(t, "tab-1", config.Persistence.Scope)
	assert.Equal(t, 30*time.Minute, config.Persistence.TTL)
	assert.Equal(t, BackendRedis, config.Transport.Backend)
	assert.Equal(t, CodecMsgpack, config.Codec)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	config, err := Load(writeConfig(t, `version: "1.0"`))
	require.NoError(t, err)

	assert.Equal(t, "default", config.Namespace)
	assert.Equal(t, CodecJSON, config.Codec)
	assert.Equal(t, BackendRedis, config.Persistence.Backend)
	assert.Equal(t, BackendRedis, config.Transport.Backend)
	assert.Equal(t, "redis://localhost:6379/0", config.Redis.URL)
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/livestore.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	config, err := Load(writeConfig(t, `version: "1.0"
persistence:
  - this is invalid
    yaml syntax
`))
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_InvalidConfiguration(t *testing.T) {
	config, err := Load(writeConfig(t, `version: "2.0"`))
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadOrDefault(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		config, err := LoadOrDefault(filepath.Join(t.TempDir(), "livestore.yml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), config)
	})

	t.Run("existing file is loaded", func(t *testing.T) {
		config, err := LoadOrDefault(writeConfig(t, `version: "1.0"
namespace: staging
`))
		require.NoError(t, err)
		assert.Equal(t, "staging", config.Namespace)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:    "unsupported version",
			config:  Config{Version: "2.0"},
			wantErr: "unsupported version: 2.0",
		},
		{
			name:    "invalid codec",
			config:  Config{Version: "1.0", Codec: "xml"},
			wantErr: "invalid codec: xml",
		},
		{
			name:    "invalid persistence backend",
			config:  Config{Version: "1.0", Persistence: PersistenceConfig{Backend: "sqlite"}},
			wantErr: "invalid persistence backend: sqlite",
		},
		{
			name:    "file backend without path",
			config:  Config{Version: "1.0", Persistence: PersistenceConfig{Backend: BackendFile}},
			wantErr: "persistence.path is required",
		},
		{
			name:    "negative ttl",
			config:  Config{Version: "1.0", Persistence: PersistenceConfig{TTL: -time.Second}},
			wantErr: "persistence.ttl must be >= 0",
		},
		{
			name:    "invalid transport backend",
			config:  Config{Version: "1.0", Transport: TransportConfig{Backend: "file"}},
			wantErr: "invalid transport backend: file",
		},
		{
			name: "file and memory backends",
			config: Config{
				Version:     "1.0",
				Persistence: PersistenceConfig{Backend: BackendFile, Path: "/tmp/livestore.json"},
				Transport:   TransportConfig{Backend: BackendMemory},
			},
		},
		{
			name: "no collaborators",
			config: Config{
				Version:     "1.0",
				Persistence: PersistenceConfig{Backend: BackendNone},
				Transport:   TransportConfig{Backend: BackendNone},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_RedisURLOnlyWhenNeeded(t *testing.T) {
	config := Config{
		Version:     "1.0",
		Persistence: PersistenceConfig{Backend: BackendMemory},
		Transport:   TransportConfig{Backend: BackendNone},
	}
	require.NoError(t, config.Validate())

	assert.False(t, config.UsesRedis())
	assert.Empty(t, config.Redis.URL)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvRedisURL, "redis://other:6380/1")
	t.Setenv(EnvNamespace, "ci")

	config := Default()
	config.ApplyEnv()

	assert.Equal(t, "redis://other:6380/1", config.Redis.URL)
	assert.Equal(t, "ci", config.Namespace)
}
