package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joandiazestigarribia/upload-project/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		BaseUrl: "http://files.test",
		Server: &config.ServerConfig{
			Port:               "0",
			UseSecurityHeaders: true,
			ReadHeaderTimeout:  time.Second,
			IdleTimeout:        time.Second,
			ShutdownTimeout:    time.Second,
		},
		RateLimit: &config.RateLimitConfig{},
		Storage: &config.StorageConfig{
			Backend:      config.StorageBackendLocal,
			Path:         filepath.Join(dir, "blobs"),
			DatabasePath: filepath.Join(dir, "app.db"),
			S3:           &config.S3Config{},
		},
		Cache:  &config.CacheConfig{TTL: time.Minute},
		Upload: &config.UploadConfig{ClientMaxBytes: config.DefaultClientMaxUploadBytes},
		Log:    &config.LogConfig{Level: "info", Format: "text"},
	}
}

func uploadAndList(t *testing.T, handler http.Handler) []map[string]interface{} {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload?filename=a.txt", strings.NewReader("abc"))
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var blob map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blob))
	assert.True(t, strings.HasPrefix(blob["url"].(string), "http://files.test/blobs/"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Blobs []map[string]interface{} `json:"blobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Blobs
}

func TestNewLocalBackend(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	assert.Len(t, uploadAndList(t, a.Handler()), 1)
}

func TestNewWithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Cache.RedisAddr = mr.Addr()

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	assert.Len(t, uploadAndList(t, a.Handler()), 1)
	assert.True(t, mr.Exists("upload-project:blobs:list"))
}

func TestNewRedisUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.RedisAddr = "127.0.0.1:1"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "ftp"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestRunStopsOnCancel(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
