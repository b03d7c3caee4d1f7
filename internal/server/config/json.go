package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/studyportal/internal/flagx"
	"github.com/dmitrijs2005/studyportal/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations accept
// "90s"-style strings or integer nanoseconds.
type JsonConfig struct {
	ListenAddr       string         `json:"listen_addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	RedisURL         string         `json:"redis_url"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	FetchWorkers     *int           `json:"fetch_workers"`
	FetchTimeout     timex.Duration `json:"fetch_timeout"`
	FetchRetries     *int           `json:"fetch_retries"`
	JobTimeout       timex.Duration `json:"job_timeout"`
	CompressionLevel *int           `json:"compression_level"`
	SpoolMemoryLimit *int64         `json:"spool_memory_limit"`
	SpoolDir         string         `json:"spool_dir"`
	LogLevel         string         `json:"log_level"`
	LogFormat        string         `json:"log_format"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
}

// parseJson overlays values from the file named by -c/-config. Keys missing
// from the file leave the current value untouched. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.ListenAddr, c.ListenAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.SpoolDir, c.SpoolDir)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	if c.FetchWorkers != nil {
		config.FetchWorkers = *c.FetchWorkers
	}
	if c.FetchRetries != nil {
		config.FetchRetries = *c.FetchRetries
	}
	if c.CompressionLevel != nil {
		config.CompressionLevel = *c.CompressionLevel
	}
	if c.SpoolMemoryLimit != nil {
		config.SpoolMemoryLimit = *c.SpoolMemoryLimit
	}
	if c.FetchTimeout.Duration != 0 {
		config.FetchTimeout = c.FetchTimeout.Duration
	}
	if c.JobTimeout.Duration != 0 {
		config.JobTimeout = c.JobTimeout.Duration
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
