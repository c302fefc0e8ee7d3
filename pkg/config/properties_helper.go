package config

import (
	"os"
	"strings"
	"time"

	"github.com/downfa11-org/go-lake/pkg/source"
	"github.com/downfa11-org/go-lake/util"
)

// DefaultPollingCadence applies when no cadence is configured. An explicit
// zero polls back to back.
const DefaultPollingCadence = 10 * time.Second

func (cfg *Config) Normalize() {
	// data lake
	cfg.DataLakePath = strings.TrimSpace(cfg.DataLakePath)
	if strings.TrimSpace(cfg.Dataset) == "" {
		cfg.Dataset = "events"
	}
	cfg.Compression = strings.ToLower(strings.TrimSpace(cfg.Compression))
	if cfg.Compression == "" {
		cfg.Compression = "snappy"
	}
	switch cfg.Compression {
	case "none", "snappy", "gzip", "zstd", "lz4":
	default:
		util.Warn("Invalid compression '%s', defaulting to 'snappy'", cfg.Compression)
		cfg.Compression = "snappy"
	}

	// record source
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 30 * time.Second
	}
	if cfg.RetryMaxAttempts <= 0 {
		cfg.RetryMaxAttempts = 5
	}
	if cfg.RetryUnit <= 0 {
		cfg.RetryUnit = time.Second
	}

	// flush loop
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchSize > source.MaxBatchSize {
		util.Warn("batch_size %d exceeds the source maximum %d; the source will reject it", cfg.BatchSize, source.MaxBatchSize)
	}
	if cfg.FlushThreshold <= 0 {
		cfg.FlushThreshold = 100_000
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 300 * time.Second
	}
	if cfg.PollingCadence < 0 {
		cfg.PollingCadence = 0
	}

	// compaction
	if cfg.CompactionThreshold <= 0 {
		cfg.CompactionThreshold = 50
	}
	if cfg.StagingMaxAge <= 0 {
		cfg.StagingMaxAge = time.Hour
	}

	// observability
	if cfg.ExporterPort <= 0 {
		cfg.ExporterPort = 9100
	}
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if cfg.LogFormat != "json" {
		cfg.LogFormat = "text"
	}
}

func overrideEnvInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		*target = util.ParseInt(v, *target)
	}
}

func overrideEnvBool(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = util.ParseBool(v, *target)
	}
}

func overrideEnvString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func overrideEnvDuration(target *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		*target = util.ParseDuration(v, *target)
	}
}

func overrideEnvLogLevel(target *util.LogLevel, key string) {
	if v := os.Getenv(key); v != "" {
		*target = util.ParseLogLevel(v)
	}
}
