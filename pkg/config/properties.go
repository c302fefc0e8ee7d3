package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/downfa11-org/go-lake/util"
	"gopkg.in/yaml.v3"
)

// ErrMissingDataLake is returned by Validate when no data lake root is configured.
var ErrMissingDataLake = errors.New("data lake path is required (set DATA_LAKE_PATH)")

// Config represents the ingestion and compaction settings of one process.
type Config struct {
	// Data lake layout
	DataLakePath string `yaml:"data_lake_path" json:"data.lake.path"`
	Dataset      string `yaml:"dataset" json:"dataset"`
	Compression  string `yaml:"compression" json:"compression"`

	// Record source
	SourceURL        string        `yaml:"source_url" json:"source.url"`
	SourceTimeout    time.Duration `yaml:"source_timeout" json:"source.timeout"`
	RetryMaxAttempts int           `yaml:"retry_max_attempts" json:"retry.max.attempts"`
	RetryUnit        time.Duration `yaml:"retry_unit" json:"retry.unit"`

	// Flush loop
	BatchSize      int           `yaml:"batch_size" json:"batch.size"`
	FlushThreshold int           `yaml:"flush_threshold" json:"flush.threshold"`
	RunTimeout     time.Duration `yaml:"run_timeout" json:"run.timeout"`
	PollingCadence time.Duration `yaml:"polling_cadence" json:"polling.cadence"`

	// Compaction
	EnableWatcher       bool          `yaml:"enable_watcher" json:"enable.watcher"`
	CompactionThreshold int           `yaml:"compaction_threshold" json:"compaction.threshold"`
	StagingMaxAge       time.Duration `yaml:"staging_max_age" json:"staging.max.age"`

	// Observability
	EnableExporter bool          `yaml:"enable_exporter" json:"enable.exporter"`
	ExporterPort   int           `yaml:"exporter_port" json:"exporter.port"`
	LogLevel       util.LogLevel `yaml:"log_level" json:"log_level"`
	LogFormat      string        `yaml:"log_format" json:"log_format"`
}

// Default returns a config with every tunable at its default value.
func Default() *Config {
	cfg := &Config{
		EnableWatcher:  true,
		PollingCadence: DefaultPollingCadence,
		LogLevel:       util.LogLevelInfo,
	}
	cfg.Normalize()
	return cfg
}

// Load builds a config from defaults, an optional YAML/JSON file and
// environment overrides, in that order. An empty path falls back to CONFIG_PATH.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}

		if strings.HasSuffix(path, ".json") {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.ApplyEnv()
	cfg.Normalize()
	return cfg, nil
}

// UnmarshalJSON reads durations as Go duration strings or as seconds,
// the same way the environment overrides do.
func (cfg *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		SourceTimeout  *util.Duration `json:"source.timeout"`
		RetryUnit      *util.Duration `json:"retry.unit"`
		RunTimeout     *util.Duration `json:"run.timeout"`
		PollingCadence *util.Duration `json:"polling.cadence"`
		StagingMaxAge  *util.Duration `json:"staging.max.age"`
	}{
		plain:          (*plain)(cfg),
		SourceTimeout:  (*util.Duration)(&cfg.SourceTimeout),
		RetryUnit:      (*util.Duration)(&cfg.RetryUnit),
		RunTimeout:     (*util.Duration)(&cfg.RunTimeout),
		PollingCadence: (*util.Duration)(&cfg.PollingCadence),
		StagingMaxAge:  (*util.Duration)(&cfg.StagingMaxAge),
	}
	return json.Unmarshal(data, &aux)
}

var yamlDurationKeys = map[string]bool{
	"source_timeout":  true,
	"retry_unit":      true,
	"run_timeout":     true,
	"polling_cadence": true,
	"staging_max_age": true,
}

// UnmarshalYAML treats bare numbers under duration keys as seconds.
func (cfg *Config) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			k, v := value.Content[i], value.Content[i+1]
			if yamlDurationKeys[k.Value] && v.Kind == yaml.ScalarNode && (v.Tag == "!!int" || v.Tag == "!!float") {
				v.Value += "s"
				v.Tag = "!!str"
			}
		}
	}
	type plain Config
	return value.Decode((*plain)(cfg))
}

// ApplyEnv overrides fields from environment variables.
func (cfg *Config) ApplyEnv() {
	overrideEnvString(&cfg.DataLakePath, "DATA_LAKE_PATH")
	overrideEnvString(&cfg.SourceURL, "RECORD_SOURCE_URL")
	overrideEnvString(&cfg.Dataset, "LAKE_DATASET")
	overrideEnvString(&cfg.Compression, "LAKE_COMPRESSION")

	overrideEnvDuration(&cfg.SourceTimeout, "LAKE_SOURCE_TIMEOUT")
	overrideEnvInt(&cfg.RetryMaxAttempts, "LAKE_RETRY_MAX_ATTEMPTS")
	overrideEnvDuration(&cfg.RetryUnit, "LAKE_RETRY_UNIT")

	overrideEnvInt(&cfg.BatchSize, "LAKE_BATCH_SIZE")
	overrideEnvInt(&cfg.FlushThreshold, "LAKE_FLUSH_THRESHOLD")
	overrideEnvDuration(&cfg.RunTimeout, "LAKE_RUN_TIMEOUT")
	overrideEnvDuration(&cfg.PollingCadence, "LAKE_POLLING_CADENCE")

	overrideEnvBool(&cfg.EnableWatcher, "LAKE_ENABLE_WATCHER")
	overrideEnvInt(&cfg.CompactionThreshold, "LAKE_COMPACTION_THRESHOLD")
	overrideEnvDuration(&cfg.StagingMaxAge, "LAKE_STAGING_MAX_AGE")

	overrideEnvBool(&cfg.EnableExporter, "LAKE_ENABLE_EXPORTER")
	overrideEnvInt(&cfg.ExporterPort, "LAKE_EXPORTER_PORT")
	overrideEnvLogLevel(&cfg.LogLevel, "LAKE_LOG_LEVEL")
	overrideEnvString(&cfg.LogFormat, "LAKE_LOG_FORMAT")
}

// Validate reports settings without which the process must not start.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.DataLakePath) == "" {
		return ErrMissingDataLake
	}
	return nil
}
