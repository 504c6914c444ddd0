package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // keep a developer's .env out of the test
	for _, key := range []string{
		"LOG_LEVEL", "SERVICE_NAME", "OTEL_EXPORTER_OTLP_ENDPOINT", "HTMLFUZZ_WORKDIR",
		"HTMLFUZZ_RANDOM_SEED", "HTMLFUZZ_PARALLELISM", "HTMLFUZZ_CORPUS", "HTMLFUZZ_FINDINGS_DIR",
		"HTMLFUZZ_PHASES", "HTMLFUZZ_BATCH_SIZE", "HTMLFUZZ_MAX_CHAIN", "HTMLFUZZ_ROUNDS",
		"HTMLFUZZ_EXEC_TIMEOUT", "HTMLFUZZ_MAX_OUTPUT",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "htmlfuzz", cfg.ServiceName)
	assert.Equal(t, "./", cfg.WorkingDir)
	assert.Equal(t, []string{PhaseBatch, PhaseWalk}, cfg.ExplorerConfig.Phases)
	assert.Equal(t, 50, cfg.ExplorerConfig.BatchSize)
	assert.Equal(t, 3, cfg.ExplorerConfig.MaxChain)
	assert.Equal(t, 50, cfg.ExplorerConfig.Rounds)
	assert.Equal(t, 30*time.Second, cfg.HarnessConfig.Timeout)
	assert.Equal(t, 1, cfg.Parallelism)
	assert.False(t, cfg.TelemetryEnabled())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTMLFUZZ_PHASES", " walk , batch,")
	t.Setenv("HTMLFUZZ_RANDOM_SEED", "99")
	t.Setenv("HTMLFUZZ_EXEC_TIMEOUT", "250ms")
	t.Setenv("HTMLFUZZ_ROUNDS", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, []string{PhaseWalk, PhaseBatch}, cfg.ExplorerConfig.Phases)
	assert.Equal(t, uint64(99), cfg.RandomSeed)
	assert.Equal(t, 250*time.Millisecond, cfg.HarnessConfig.Timeout)
	assert.Equal(t, 50, cfg.ExplorerConfig.Rounds)
}

func TestValidate(t *testing.T) {
	valid := func() *AppConfig {
		return &AppConfig{
			Target:         "target.sh",
			Parallelism:    1,
			ExplorerConfig: ExplorerConfig{Phases: []string{PhaseBatch}, BatchSize: 50, MaxChain: 3, Rounds: 50},
		}
	}
	require.NoError(t, valid().Validate())

	for name, mutate := range map[string]func(*AppConfig){
		"no target":     func(c *AppConfig) { c.Target = "" },
		"parallelism":   func(c *AppConfig) { c.Parallelism = 0 },
		"no phases":     func(c *AppConfig) { c.ExplorerConfig.Phases = nil },
		"unknown phase": func(c *AppConfig) { c.ExplorerConfig.Phases = []string{"dfs"} },
		"batch size":    func(c *AppConfig) { c.ExplorerConfig.BatchSize = -1 },
		"max chain":     func(c *AppConfig) { c.ExplorerConfig.MaxChain = 0 },
		"rounds":        func(c *AppConfig) { c.ExplorerConfig.Rounds = -2 },
		"timeout":       func(c *AppConfig) { c.HarnessConfig.Timeout = -time.Second },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
