package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "default", cfg.DefaultMatch)
	assert.Equal(t, 500*time.Millisecond, cfg.PlaybackInterval)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.DevLogging)
	assert.Empty(t, cfg.WSOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REPLAY_ADDR", "127.0.0.1:9000")
	t.Setenv("LOGLEVEL", "debug")
	t.Setenv("REPLAY_PLAYBACK_INTERVAL", "2s")
	t.Setenv("REPLAY_WS_ORIGINS", "localhost:*,127.0.0.1:*")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.PlaybackInterval)
	assert.Equal(t, []string{"localhost:*", "127.0.0.1:*"}, cfg.WSOrigins)
}

func TestLoad_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("REPLAY_DEFAULT_MATCH=finals\n"), 0o644))
	t.Setenv("REPLAY_DEFAULT_MATCH", "") // restored after the test
	require.NoError(t, os.Unsetenv("REPLAY_DEFAULT_MATCH"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "finals", cfg.DefaultMatch)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unparsable interval", key: "REPLAY_PLAYBACK_INTERVAL", value: "soon"},
		{name: "zero interval", key: "REPLAY_PLAYBACK_INTERVAL", value: "0s"},
		{name: "negative upload limit", key: "REPLAY_MAX_UPLOAD_BYTES", value: "-1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
