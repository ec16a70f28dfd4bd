package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"

database:
  url: "postgres://db:5432/portal?sslmode=disable"
  max_open_conns: 20

redis:
  addr: "redis:6379"

activities:
  backend: redis

static:
  s3_bucket: "portal-assets"
  s3_region: "us-west-2"

notify:
  enabled: true
  from: "activities@mergington.edu"
  subject: "Welcome to {{ activity }}"

cors:
  allowed_origins: ["https://mergington.edu"]

log:
  level: debug
  redact_pii: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "postgres://db:5432/portal?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "portal:", cfg.Redis.KeyPrefix)
	assert.Equal(t, BackendRedis, cfg.Activities.Backend)
	assert.Equal(t, "portal-assets", cfg.Static.S3Bucket)
	assert.True(t, cfg.Notify.Enabled)
	assert.Equal(t, "Welcome to {{ activity }}", cfg.Notify.Subject)
	assert.Equal(t, []string{"https://mergington.edu"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Redact())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  host: \"127.0.0.1\"\n"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, BackendMemory, cfg.Activities.Backend)
	assert.Equal(t, "static", cfg.Static.Dir)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Redact())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_RedisBackendNeedsAddr(t *testing.T) {
	_, err := Load(writeConfig(t, "activities:\n  backend: redis\n"))
	assert.Error(t, err)
}

func TestLoad_UnknownBackend(t *testing.T) {
	_, err := Load(writeConfig(t, "activities:\n  backend: sqlite\n"))
	assert.Error(t, err)
}

func TestLoad_NotifyNeedsFrom(t *testing.T) {
	_, err := Load(writeConfig(t, "notify:\n  enabled: true\n"))
	assert.Error(t, err)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("REDIS_ADDR", "localhost:6380")
	t.Setenv("ACTIVITIES_BACKEND", "redis")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.edu, https://b.edu,")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadFromEnv(writeConfig(t, "server:\n  port: 8080\n"))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "postgres://env/db", cfg.Database.URL)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, BackendRedis, cfg.Activities.Backend)
	assert.Equal(t, []string{"https://a.edu", "https://b.edu"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadFromEnv_InvalidNotifyEnabled(t *testing.T) {
	t.Setenv("NOTIFY_ENABLED", "yes")

	_, err := LoadFromEnv(writeConfig(t, "notify:\n  from: clubs@mergington.edu\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTIFY_ENABLED")
}

func TestLoadFromEnv_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "eighty")

	_, err := LoadFromEnv(writeConfig(t, "server:\n  port: 8080\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestLoadFromEnv_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ACTIVITIES_BACKEND", "")
	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadFromEnv_EnvCompletesFileConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := LoadFromEnv(writeConfig(t, "activities:\n  backend: redis\n"))
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Activities.Backend)
}

func TestServerConfig_HostOverride(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("AWS_EXECUTION_ENV", "")
	t.Setenv("SERVER_HOST", "10.0.0.5")

	c := ServerConfig{Host: "localhost", Port: 8000}
	assert.Equal(t, "10.0.0.5:8000", c.Addr())
}
