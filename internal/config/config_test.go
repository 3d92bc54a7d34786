package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "dhandiary.db", cfg.LocalDBPath)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.FollowUpDelay)
	assert.Equal(t, 50, cfg.PushChunkSize)
	assert.Equal(t, 200, cfg.PullPageSize)
	assert.Empty(t, cfg.RemoteDSN, "sync must be unconfigured by default")
}

func TestParseEnv(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	t.Setenv("DHANDIARY_REMOTE_DSN", "postgres://u:p@h/db")
	t.Setenv("DHANDIARY_S3_ACCESS_KEY", "ak")
	parseEnv(cfg)

	assert.Equal(t, "postgres://u:p@h/db", cfg.RemoteDSN)
	assert.Equal(t, "ak", cfg.S3AccessKey)
}

func TestJsonConfigOverlay(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	jc := JsonConfig{
		RemoteDSN:     "postgres://file",
		PushChunkSize: 25,
	}
	data, err := json.Marshal(jc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	os.Args = []string{"test", "-c", path}
	parseJson(cfg)

	assert.Equal(t, "postgres://file", cfg.RemoteDSN)
	assert.Equal(t, 25, cfg.PushChunkSize)
	// untouched by the partial file
	assert.Equal(t, 200, cfg.PullPageSize)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
}
