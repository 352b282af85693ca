package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, TransportDir, cfg.Transport.Kind)
	assert.Equal(t, "confsync.db", cfg.Device.DBPath)
	assert.Equal(t, 30*time.Second, cfg.Sync.CycleTimeout)
	assert.Equal(t, 500, cfg.Sync.CompactThreshold)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "confsync.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/confsync/laptop.db", cfg.Device.DBPath)
	assert.Equal(t, TransportS3, cfg.Transport.Kind)
	assert.Equal(t, "team-config", cfg.Transport.S3.Bucket)
	assert.Equal(t, "prod/", cfg.Transport.S3.Prefix)
	assert.True(t, cfg.Transport.S3.UsePathStyle)
	assert.Equal(t, uint64(3), cfg.Transport.S3.MaxRetries, "unset keys keep defaults")
	assert.Equal(t, 10*time.Second, cfg.Sync.CycleTimeout)
	assert.Equal(t, 30*time.Second, cfg.Sync.PublishTimeout)
	assert.Equal(t, 200, cfg.Sync.CompactThreshold)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("CONFSYNC_TRANSPORT", "http")
	t.Setenv("CONFSYNC_RELAY_URL", "https://relay.example.com")
	t.Setenv("CONFSYNC_RELAY_TOKEN", "secret")
	t.Setenv("CONFSYNC_CYCLE_TIMEOUT", "1m")
	t.Setenv("CONFSYNC_COMPACT_THRESHOLD", "0")

	cfg, err := Load(filepath.Join("testdata", "confsync.yaml"))
	require.NoError(t, err)

	assert.Equal(t, TransportHTTP, cfg.Transport.Kind)
	assert.Equal(t, "https://relay.example.com", cfg.Transport.HTTP.URL)
	assert.Equal(t, "secret", cfg.Transport.HTTP.Token)
	assert.Equal(t, time.Minute, cfg.Sync.CycleTimeout)
	assert.Zero(t, cfg.Sync.CompactThreshold)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	tests := []struct {
		name string
		path string
		env  map[string]string
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.yaml")},
		{name: "invalid yaml", path: write("bad.yaml", "transport: [")},
		{name: "unknown transport", path: write("kind.yaml", "transport:\n  kind: ftp\n")},
		{name: "s3 without bucket", path: write("s3.yaml", "transport:\n  kind: s3\n")},
		{name: "http without url", path: write("http.yaml", "transport:\n  kind: http\n")},
		{name: "negative threshold", path: write("neg.yaml", "sync:\n  compact_threshold: -1\n")},
		{name: "invalid level", path: write("level.yaml", "log:\n  level: loud\n")},
		{name: "invalid duration env", env: map[string]string{"CONFSYNC_CYCLE_TIMEOUT": "soon"}},
		{name: "invalid int env", env: map[string]string{"CONFSYNC_RATE_LIMIT": "many"}},
		{name: "invalid bool env", env: map[string]string{"CONFSYNC_S3_PATH_STYLE": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.path)
			assert.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLogConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "device_id", "laptop")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"device_id":"laptop"`)
}
