// Package config loads runtime settings for the DhanDiary client: defaults
// first, then a JSON file, then command-line flags and environment, with the
// later sources taking precedence.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the client and its sync engine.
type Config struct {
	// RemoteDSN is the Postgres connection string of the remote store.
	// Empty means this build runs local-only (sync is not configured).
	RemoteDSN string

	// LocalDBPath is the path of the local SQLite database file.
	LocalDBPath string

	// SyncInterval drives the foreground auto-sync ticker.
	SyncInterval time.Duration

	// DebounceWindow is how long after a local change before an auto sync fires.
	DebounceWindow time.Duration

	// FollowUpDelay is the pause before a coalesced follow-up sync run.
	FollowUpDelay time.Duration

	// RequestTimeout bounds every single remote call.
	RequestTimeout time.Duration

	// OnlineCheckInterval is how often reachability of the remote store is probed.
	OnlineCheckInterval time.Duration

	// PushChunkSize bounds rows per upsert statement (remote parameter limits).
	PushChunkSize int

	// PullPageSize bounds rows fetched per pull page.
	PullPageSize int

	// BackoffMin/BackoffMax bound the failure backoff applied to scheduled syncs.
	BackoffMin time.Duration
	BackoffMax time.Duration

	// Receipt storage (S3-compatible). Empty endpoint disables uploads.
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.LocalDBPath = "dhandiary.db"
	c.SyncInterval = 5 * time.Minute
	c.DebounceWindow = 2 * time.Second
	c.FollowUpDelay = 500 * time.Millisecond
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 15 * time.Second
	c.PushChunkSize = 50
	c.PullPageSize = 200
	c.BackoffMin = 30 * time.Second
	c.BackoffMax = 10 * time.Minute
	c.S3Region = "us-east-1"
	c.S3Bucket = "dhandiary-receipts"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), command-line flags, and finally the environment.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	parseEnv(cfg)
	return cfg
}

// parseEnv overlays secrets that should not live in files or argv.
func parseEnv(cfg *Config) {
	if v := os.Getenv("DHANDIARY_REMOTE_DSN"); v != "" {
		cfg.RemoteDSN = v
	}
	if v := os.Getenv("DHANDIARY_S3_ACCESS_KEY"); v != "" {
		cfg.S3AccessKey = v
	}
	if v := os.Getenv("DHANDIARY_S3_SECRET_KEY"); v != "" {
		cfg.S3SecretKey = v
	}
}
