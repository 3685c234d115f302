package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "sift", cfg.MinioBucket)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sift.yaml")
	data := []byte("db_path: /var/lib/sift\nredis_addr: redis.internal:6379\nminio_use_ssl: true\nlog_level: debug\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/sift", cfg.DBPath)
	assert.Equal(t, "redis.internal:6379", cfg.RedisAddr)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Fields the file does not mention keep their defaults.
	assert.Equal(t, "http://localhost:9998", cfg.TikaURL)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sift.yaml")
	require.NoError(t, os.WriteFile(path, []byte("redis_addr: from-file:6379\n"), 0o644))
	t.Setenv("SIFT_REDIS_ADDR", "from-env:6379")
	t.Setenv("SIFT_SEARCH_URL", "http://search.internal")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env:6379", cfg.RedisAddr)
	assert.Equal(t, "http://search.internal", cfg.SearchURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadLevel(t *testing.T) {
	t.Setenv("SIFT_LOG_LEVEL", "loud")
	_, err := Load("")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)
	logger.Info("hello", "k", "v")

	assert.Contains(t, stderr.String(), "hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "v", entry["k"])
}
