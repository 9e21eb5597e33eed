package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var configEnvKeys = []string{
	"CONFIG_FILE", "SERVER_PORT", "BASE_URL", "USE_HSTS", "USE_SECURITY_HEADERS",
	"READ_HEADER_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT", "RATE_LIMIT", "RATE_BURST",
	"STORAGE_BACKEND", "STORAGE_PATH", "DATABASE_PATH", "S3_BUCKET", "S3_REGION",
	"S3_ENDPOINT", "S3_PUBLIC_BASE_URL", "S3_FORCE_PATH_STYLE", "S3_MAX_RETRIES",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CACHE_TTL", "UPLOAD_MAX_BYTES",
	"CLIENT_MAX_UPLOAD_BYTES", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BaseUrl)
	assert.True(t, cfg.Server.UseSecurityHeaders)
	assert.False(t, cfg.Server.UseHsts)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, rate.Limit(0), cfg.RateLimit.Limit)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, StorageBackendLocal, cfg.Storage.Backend)
	assert.Equal(t, "data/blobs", cfg.Storage.Path)
	assert.Equal(t, "us-east-1", cfg.Storage.S3.Region)
	assert.Equal(t, "", cfg.Cache.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, int64(0), cfg.Upload.MaxBytes)
	assert.Equal(t, DefaultClientMaxUploadBytes, cfg.Upload.ClientMaxBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("BASE_URL", "https://files.example.com/")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "uploads")
	t.Setenv("S3_FORCE_PATH_STYLE", "true")
	t.Setenv("RATE_LIMIT", "2.5")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "https://files.example.com", cfg.BaseUrl)
	assert.Equal(t, StorageBackendS3, cfg.Storage.Backend)
	assert.Equal(t, "uploads", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Storage.S3.ForcePathStyle)
	assert.Equal(t, rate.Limit(2.5), cfg.RateLimit.Limit)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"SERVER_PORT":         "http",
		"USE_HSTS":            "maybe",
		"READ_HEADER_TIMEOUT": "soon",
		"RATE_LIMIT":          "-1",
		"STORAGE_BACKEND":     "ftp",
		"UPLOAD_MAX_BYTES":    "lots",
		"LOG_FORMAT":          "xml",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadS3RequiresBucket(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "s3")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "S3_BUCKET")
}

func TestLoadTomlFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", `
server_port = 7000
use_hsts = true
storage_backend = "s3"

[s3]
bucket = "from-file"
max_retries = 2

[redis]
addr = "redis:6379"
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("S3_REGION", "eu-north-1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.True(t, cfg.Server.UseHsts)
	assert.Equal(t, StorageBackendS3, cfg.Storage.Backend)
	assert.Equal(t, "from-file", cfg.Storage.S3.Bucket)
	assert.Equal(t, 2, cfg.Storage.S3.MaxRetries)
	assert.Equal(t, "eu-north-1", cfg.Storage.S3.Region)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
}

func TestLoadYamlFileEnvWins(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
server_port: 7001
log_level: debug
cache_ttl: 5s
storage_path: /srv/blobs
`)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7001", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "/srv/blobs", cfg.Storage.Path)
}

func TestLoadFileErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "config.ini", "a=b"))
	assert.ErrorContains(t, err, "unsupported")

	_, err = Load(writeFile(t, "broken.toml", "this is = = not toml"))
	assert.Error(t, err)
}
