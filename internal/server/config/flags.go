package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/studyportal/internal/flagx"
)

var serverFlags = []string{
	"-a", "-d", "-r", "-u", "-p", "-b", "-g", "-e",
	"-w", "-t", "-n", "-j", "-z", "-m", "-s", "-l", "-f",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP listen address (e.g., ":8080")
//	-d string     PostgreSQL DSN
//	-r string     Redis URL for download counters
//	-u string     S3 root user
//	-p string     S3 root password
//	-b string     S3 bucket name
//	-g string     S3 region
//	-e string     S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-w int        concurrent fetches per archive job
//	-t duration   per-item fetch timeout
//	-n int        retries per item on transient failures
//	-j duration   per-job timeout
//	-z int        deflate compression level (0..9)
//	-m int        in-memory spool limit per item, bytes
//	-s string     spool directory for large items
//	-l string     log level
//	-f string     log format (json|text)
//
// os.Args is filtered through flagx.FilterArgs first so that -c/-config and
// -env, owned by the other layers, are not rejected as unknown.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.IntVar(&config.FetchWorkers, "w", config.FetchWorkers, "concurrent fetches per archive")
	fs.DurationVar(&config.FetchTimeout, "t", config.FetchTimeout, "per-item fetch timeout")
	fs.IntVar(&config.FetchRetries, "n", config.FetchRetries, "fetch retries")
	fs.DurationVar(&config.JobTimeout, "j", config.JobTimeout, "per-job timeout")
	fs.IntVar(&config.CompressionLevel, "z", config.CompressionLevel, "deflate level")
	fs.Int64Var(&config.SpoolMemoryLimit, "m", config.SpoolMemoryLimit, "in-memory spool limit, bytes")
	fs.StringVar(&config.SpoolDir, "s", config.SpoolDir, "spool directory")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
