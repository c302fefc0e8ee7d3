package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/downfa11-org/go-lake/pkg/config"
	"github.com/downfa11-org/go-lake/pkg/source"
	"github.com/downfa11-org/go-lake/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &config.Config{}
	cfg.Normalize()

	if cfg.BatchSize != 100 {
		t.Errorf("BatchSize default incorrect: %d", cfg.BatchSize)
	}
	if cfg.FlushThreshold != 100_000 {
		t.Errorf("FlushThreshold default incorrect: %d", cfg.FlushThreshold)
	}
	if cfg.CompactionThreshold != 50 {
		t.Errorf("CompactionThreshold default incorrect: %d", cfg.CompactionThreshold)
	}
	if cfg.RetryMaxAttempts != 5 || cfg.RetryUnit != time.Second {
		t.Errorf("retry defaults incorrect: %d / %v", cfg.RetryMaxAttempts, cfg.RetryUnit)
	}
	if cfg.RunTimeout != 300*time.Second {
		t.Errorf("RunTimeout default incorrect: %v", cfg.RunTimeout)
	}
	if got := config.Default().PollingCadence; got != config.DefaultPollingCadence {
		t.Errorf("PollingCadence default incorrect: %v", got)
	}
	if cfg.Compression != "snappy" || cfg.Dataset != "events" {
		t.Errorf("file defaults incorrect: %s / %s", cfg.Compression, cfg.Dataset)
	}
}

func TestCompressionNormalization(t *testing.T) {
	cfg := &config.Config{Compression: "Brotli"}
	cfg.Normalize()
	assert.Equal(t, "snappy", cfg.Compression)

	cfg = &config.Config{Compression: " ZSTD "}
	cfg.Normalize()
	assert.Equal(t, "zstd", cfg.Compression)
}

func TestValidateRequiresDataLake(t *testing.T) {
	cfg := config.Default()
	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingDataLake)

	cfg.DataLakePath = "  "
	cfg.Normalize()
	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingDataLake)

	cfg.DataLakePath = t.TempDir()
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lake.yaml")
	content := `
data_lake_path: /srv/lake
source_url: http://localhost:8000/records
batch_size: 5000
polling_cadence: 2s
compaction_threshold: 10
enable_watcher: false
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("DATA_LAKE_PATH", dir)
	t.Setenv("LAKE_FLUSH_THRESHOLD", "2500")
	t.Setenv("LAKE_RETRY_UNIT", "10ms")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataLakePath)
	assert.Equal(t, "http://localhost:8000/records", cfg.SourceURL)
	assert.Equal(t, 5000, cfg.BatchSize)
	assert.Equal(t, 2500, cfg.FlushThreshold)
	assert.Equal(t, 2*time.Second, cfg.PollingCadence)
	assert.Equal(t, 10*time.Millisecond, cfg.RetryUnit)
	assert.Equal(t, 10, cfg.CompactionThreshold)
	assert.False(t, cfg.EnableWatcher)
	assert.Equal(t, util.LogLevelDebug, cfg.LogLevel)
}

func TestLoadFromConfigPathEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lake.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data.lake.path": "/data", "batch.size": 42}`), 0o644))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DATA_LAKE_PATH", "")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/data", cfg.DataLakePath)
	assert.Equal(t, 42, cfg.BatchSize)
	assert.True(t, cfg.EnableWatcher)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestZeroPollingCadenceIsKept(t *testing.T) {
	t.Setenv("LAKE_POLLING_CADENCE", "0")

	cfg := config.Default()
	cfg.ApplyEnv()
	cfg.Normalize()
	assert.Zero(t, cfg.PollingCadence)

	cfg.PollingCadence = -time.Second
	cfg.Normalize()
	assert.Zero(t, cfg.PollingCadence)
}

func TestLoadJSONDurations(t *testing.T) {
	t.Setenv("DATA_LAKE_PATH", "")
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, cfg *config.Config)
		wantErr bool
	}{
		{
			name:    "duration strings",
			content: `{"run.timeout": "5m", "retry.unit": "250ms", "staging.max.age": "2h"}`,
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 5*time.Minute, cfg.RunTimeout)
				assert.Equal(t, 250*time.Millisecond, cfg.RetryUnit)
				assert.Equal(t, 2*time.Hour, cfg.StagingMaxAge)
				assert.Equal(t, 30*time.Second, cfg.SourceTimeout, "unset keys keep defaults")
			},
		},
		{
			name:    "numbers are seconds",
			content: `{"run.timeout": 300, "polling.cadence": 10, "source.timeout": 1.5}`,
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 300*time.Second, cfg.RunTimeout)
				assert.Equal(t, 10*time.Second, cfg.PollingCadence)
				assert.Equal(t, 1500*time.Millisecond, cfg.SourceTimeout)
			},
		},
		{
			name:    "zero cadence",
			content: `{"polling.cadence": 0, "batch.size": 7}`,
			check: func(t *testing.T, cfg *config.Config) {
				assert.Zero(t, cfg.PollingCadence)
				assert.Equal(t, 7, cfg.BatchSize)
			},
		},
		{
			name:    "invalid duration",
			content: `{"run.timeout": "soon"}`,
			wantErr: true,
		},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, fmt.Sprintf("lake-%d.json", i))
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			cfg, err := config.Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadYAMLNumericDurations(t *testing.T) {
	t.Setenv("DATA_LAKE_PATH", "")
	path := filepath.Join(t.TempDir(), "lake.yaml")
	content := `
data_lake_path: /srv/lake
run_timeout: 120
retry_unit: 0.5
source_timeout: 45s
log_level: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120*time.Second, cfg.RunTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryUnit)
	assert.Equal(t, 45*time.Second, cfg.SourceTimeout)
	assert.Equal(t, util.LogLevelError, cfg.LogLevel)
}

func TestBatchSizeAboveSourceMaximumIsKept(t *testing.T) {
	cfg := &config.Config{BatchSize: source.MaxBatchSize + 1}
	cfg.Normalize()
	assert.Equal(t, source.MaxBatchSize+1, cfg.BatchSize, "the source reports the rejection")

	cfg = &config.Config{BatchSize: source.MaxBatchSize}
	cfg.Normalize()
	assert.Equal(t, source.MaxBatchSize, cfg.BatchSize)
}
