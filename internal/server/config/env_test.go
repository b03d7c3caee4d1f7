package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_FromProcessEnvironment(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	clearEnv(t)

	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("REDIS_URL", "redis://env:6379/0")
	t.Setenv("FETCH_WORKERS", "7")
	t.Setenv("FETCH_TIMEOUT", "12s")
	t.Setenv("SPOOL_MEMORY_LIMIT", "512")
	t.Setenv("ZIP_COMPRESSION_LEVEL", "1")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "postgres://env", cfg.DatabaseDSN)
	assert.Equal(t, "redis://env:6379/0", cfg.RedisURL)
	assert.Equal(t, 7, cfg.FetchWorkers)
	assert.Equal(t, 12*time.Second, cfg.FetchTimeout)
	assert.Equal(t, int64(512), cfg.SpoolMemoryLimit)
	assert.Equal(t, 1, cfg.CompressionLevel)
	assert.Equal(t, 10*time.Minute, cfg.JobTimeout, "unset variables keep defaults")
}

func TestParseEnv_DotenvFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "portal.env")
	require.NoError(t, os.WriteFile(path, []byte("S3_BUCKET=from-file\nJOB_TIMEOUT=90s\n"), 0o600))

	// Registered with t.Setenv so the values loaded from the file are
	// restored after the test.
	t.Setenv("S3_BUCKET", "")
	t.Setenv("JOB_TIMEOUT", "")
	require.NoError(t, os.Unsetenv("S3_BUCKET"))
	require.NoError(t, os.Unsetenv("JOB_TIMEOUT"))

	os.Args = []string{"testbin", "-env", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "from-file", cfg.S3Bucket)
	assert.Equal(t, 90*time.Second, cfg.JobTimeout)
}

func TestParseEnv_BadValuesPanic(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	tests := []struct {
		key, value string
	}{
		{"FETCH_WORKERS", "lots"},
		{"SPOOL_MEMORY_LIMIT", "big"},
		{"JOB_TIMEOUT", "forever"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := &Config{}
			require.Panics(t, func() { parseEnv(cfg) })
		})
	}
}

func TestParseEnv_MissingExplicitFilePanics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-env", filepath.Join(t.TempDir(), "absent.env")}

	cfg := &Config{}
	require.Panics(t, func() { parseEnv(cfg) })
}
