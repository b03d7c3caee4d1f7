package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/studyportal/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv overlays values from environment variables. A dotenv file named
// by -env is loaded first (a missing or broken file panics); without the
// flag a ./.env file is loaded when present. Variables already set in the
// process environment win over the file.
func parseEnv(config *Config) {
	if envFile := flagx.EnvFileFlags(); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	envString(&config.ListenAddr, "LISTEN_ADDR")
	envString(&config.DatabaseDSN, "DATABASE_URL")
	envString(&config.RedisURL, "REDIS_URL")
	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.SpoolDir, "SPOOL_DIR")
	envString(&config.LogLevel, "LOG_LEVEL")
	envString(&config.LogFormat, "LOG_FORMAT")

	envInt(&config.FetchWorkers, "FETCH_WORKERS")
	envInt(&config.FetchRetries, "FETCH_RETRIES")
	envInt(&config.CompressionLevel, "ZIP_COMPRESSION_LEVEL")
	envInt64(&config.SpoolMemoryLimit, "SPOOL_MEMORY_LIMIT")

	envDuration(&config.FetchTimeout, "FETCH_TIMEOUT")
	envDuration(&config.JobTimeout, "JOB_TIMEOUT")
	envDuration(&config.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(key + ": " + err.Error())
	}
	*dst = n
}

func envInt64(dst *int64, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		panic(key + ": " + err.Error())
	}
	*dst = n
}

func envDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(key + ": " + err.Error())
	}
	*dst = d
}
