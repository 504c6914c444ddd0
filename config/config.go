package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	PhaseBatch = "batch" // independent mutation batches, fail-fast
	PhaseWalk  = "walk"  // backtracking random walk
)

type AppConfig struct {
	LogLevel     string
	ServiceName  string
	OTLPEndpoint string

	WorkingDir  string
	Target      string
	RandomSeed  uint64 // 0 picks a time-based seed at startup
	Parallelism int
	CorpusFile  string
	FindingsDir string

	ExplorerConfig ExplorerConfig
	HarnessConfig  HarnessConfig
}

type ExplorerConfig struct {
	Phases    []string
	BatchSize int // candidates generated per seed in the batch phase
	MaxChain  int // upper bound of mutations chained per batch candidate
	Rounds    int // walk rounds per seed
}

type HarnessConfig struct {
	Timeout        time.Duration // 0 disables the per-execution deadline
	MaxOutputBytes int
}

func LoadConfig() *AppConfig {
	// use a temporary logger for now
	logger := zap.NewExample().Named("config")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load .env file", zap.Error(err))
	}

	config := &AppConfig{
		LogLevel:     os.Getenv("LOG_LEVEL"),
		ServiceName:  os.Getenv("SERVICE_NAME"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		WorkingDir:   os.Getenv("HTMLFUZZ_WORKDIR"),
		RandomSeed:   parseUint(logger, "HTMLFUZZ_RANDOM_SEED", 0),
		Parallelism:  parseInt(logger, "HTMLFUZZ_PARALLELISM", 1),
		CorpusFile:   os.Getenv("HTMLFUZZ_CORPUS"),
		FindingsDir:  os.Getenv("HTMLFUZZ_FINDINGS_DIR"),
		ExplorerConfig: ExplorerConfig{
			Phases:    parseList(os.Getenv("HTMLFUZZ_PHASES"), []string{PhaseBatch, PhaseWalk}),
			BatchSize: parseInt(logger, "HTMLFUZZ_BATCH_SIZE", 50),
			MaxChain:  parseInt(logger, "HTMLFUZZ_MAX_CHAIN", 3),
			Rounds:    parseInt(logger, "HTMLFUZZ_ROUNDS", 50),
		},
		HarnessConfig: HarnessConfig{
			Timeout:        parseDuration(logger, "HTMLFUZZ_EXEC_TIMEOUT", 30*time.Second),
			MaxOutputBytes: parseInt(logger, "HTMLFUZZ_MAX_OUTPUT", 1<<20),
		},
	}

	if config.LogLevel == "" {
		config.LogLevel = "info" // Set default log level
	}
	if config.ServiceName == "" {
		config.ServiceName = "htmlfuzz" // Default service name
	}
	if config.WorkingDir == "" {
		config.WorkingDir = "./"
	}

	return config
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *AppConfig) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("%w: no target executable", ErrInvalidConfig)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("%w: parallelism must be >= 1, got %d", ErrInvalidConfig, c.Parallelism)
	}
	if len(c.ExplorerConfig.Phases) == 0 {
		return fmt.Errorf("%w: at least one phase is required", ErrInvalidConfig)
	}
	for _, phase := range c.ExplorerConfig.Phases {
		if phase != PhaseBatch && phase != PhaseWalk {
			return fmt.Errorf("%w: unknown phase %q (want %q or %q)", ErrInvalidConfig, phase, PhaseBatch, PhaseWalk)
		}
	}
	if c.ExplorerConfig.BatchSize < 0 {
		return fmt.Errorf("%w: batch size must be >= 0, got %d", ErrInvalidConfig, c.ExplorerConfig.BatchSize)
	}
	if c.ExplorerConfig.MaxChain < 1 {
		return fmt.Errorf("%w: max chain must be >= 1, got %d", ErrInvalidConfig, c.ExplorerConfig.MaxChain)
	}
	if c.ExplorerConfig.Rounds < 0 {
		return fmt.Errorf("%w: rounds must be >= 0, got %d", ErrInvalidConfig, c.ExplorerConfig.Rounds)
	}
	if c.HarnessConfig.Timeout < 0 {
		return fmt.Errorf("%w: exec timeout must be >= 0, got %s", ErrInvalidConfig, c.HarnessConfig.Timeout)
	}
	return nil
}

func (c *AppConfig) TelemetryEnabled() bool {
	return c.OTLPEndpoint != ""
}

// malformed values fall back to the default with a warning
func parseDuration(logger *zap.Logger, key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		logger.Warn("invalid duration, using default", zap.String("key", key), zap.Duration("default", defaultVal), zap.Error(err))
		return defaultVal
	}
	return d
}

func parseInt(logger *zap.Logger, key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		logger.Warn("invalid integer, using default", zap.String("key", key), zap.Int("default", defaultVal), zap.Error(err))
		return defaultVal
	}
	return i
}

func parseUint(logger *zap.Logger, key string, defaultVal uint64) uint64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	u, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		logger.Warn("invalid unsigned integer, using default", zap.String("key", key), zap.Uint64("default", defaultVal), zap.Error(err))
		return defaultVal
	}
	return u
}

func parseList(val string, defaultVal []string) []string {
	if strings.TrimSpace(val) == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
