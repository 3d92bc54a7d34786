package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/EllowDigital/DhanDiary-sub000/internal/flagx"
	"github.com/EllowDigital/DhanDiary-sub000/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals use
// timex.Duration so the file can specify either "2s" or integer nanoseconds.
type JsonConfig struct {
	RemoteDSN           string         `json:"remote_dsn"`
	LocalDBPath         string         `json:"local_db_path"`
	SyncInterval        timex.Duration `json:"sync_interval"`
	DebounceWindow      timex.Duration `json:"debounce_window"`
	FollowUpDelay       timex.Duration `json:"follow_up_delay"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	PushChunkSize       int            `json:"push_chunk_size"`
	PullPageSize        int            `json:"pull_page_size"`
	BackoffMin          timex.Duration `json:"backoff_min"`
	BackoffMax          timex.Duration `json:"backoff_max"`
	S3Endpoint          string         `json:"s3_endpoint"`
	S3Region            string         `json:"s3_region"`
	S3Bucket            string         `json:"s3_bucket"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. Zero values in the file leave the existing setting untouched,
// so a partial config file is fine.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.RemoteDSN != "" {
		cfg.RemoteDSN = jc.RemoteDSN
	}
	if jc.LocalDBPath != "" {
		cfg.LocalDBPath = jc.LocalDBPath
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	}
	if jc.DebounceWindow.Duration != 0 {
		cfg.DebounceWindow = time.Duration(jc.DebounceWindow.Duration)
	}
	if jc.FollowUpDelay.Duration != 0 {
		cfg.FollowUpDelay = time.Duration(jc.FollowUpDelay.Duration)
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.PushChunkSize != 0 {
		cfg.PushChunkSize = jc.PushChunkSize
	}
	if jc.PullPageSize != 0 {
		cfg.PullPageSize = jc.PullPageSize
	}
	if jc.BackoffMin.Duration != 0 {
		cfg.BackoffMin = time.Duration(jc.BackoffMin.Duration)
	}
	if jc.BackoffMax.Duration != 0 {
		cfg.BackoffMax = time.Duration(jc.BackoffMax.Duration)
	}
	if jc.S3Endpoint != "" {
		cfg.S3Endpoint = jc.S3Endpoint
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
}
