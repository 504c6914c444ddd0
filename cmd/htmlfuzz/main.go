package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"htmlfuzz/config"
	"htmlfuzz/internal/corpus"
	"htmlfuzz/internal/crash"
	"htmlfuzz/internal/explore"
	"htmlfuzz/internal/fuzz"
	"htmlfuzz/internal/harness"
	"htmlfuzz/internal/results"
	"htmlfuzz/pkg/logger"
	"htmlfuzz/pkg/telemetry"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// errFailuresFound makes the process exit 1 without printing an error; the
// summary already explains why.
var errFailuresFound = errors.New("failing test cases found")

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "htmlfuzz [flags] <target>",
		Short: "Mutation-based fuzzer for programs that read HTML on stdin",
		Long: `htmlfuzz feeds mutated but well-formed HTML documents to <target> on
standard input, one process per document, and reports every document the
target rejects with a non-zero exit status.

<target> is resolved relative to the working directory and started through
the platform shell. Settings come from the environment (and .env); flags
override them.`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE:          runFuzz,
	}

	flags := cmd.Flags()
	flags.StringP("workdir", "C", "", "directory the target is resolved and run in (HTMLFUZZ_WORKDIR)")
	flags.Uint64("seed", 0, "random seed, 0 picks one from the clock (HTMLFUZZ_RANDOM_SEED)")
	flags.Duration("timeout", 0, "per-execution timeout, 0 disables it (HTMLFUZZ_EXEC_TIMEOUT)")
	flags.IntP("parallel", "j", 1, "seeds fuzzed concurrently within a phase (HTMLFUZZ_PARALLELISM)")
	flags.StringSlice("phases", nil, "phases to run, in order: batch, walk (HTMLFUZZ_PHASES)")
	flags.Int("batch-size", 0, "candidates per seed in the batch phase (HTMLFUZZ_BATCH_SIZE)")
	flags.Int("max-chain", 0, "maximum mutations chained per batch candidate (HTMLFUZZ_MAX_CHAIN)")
	flags.Int("rounds", 0, "rounds per seed in the walk phase (HTMLFUZZ_ROUNDS)")
	flags.String("corpus", "", "YAML seed corpus file (HTMLFUZZ_CORPUS)")
	flags.String("findings", "", "directory failing documents are saved to (HTMLFUZZ_FINDINGS_DIR)")
	flags.String("log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	flags.String("color", "auto", "colorize the summary (auto|on|off)")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errFailuresFound) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func runFuzz(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	cfg.Target = args[0]
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cmd.SilenceUsage = true

	var runState *results.RunState
	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			logger.NewLogger,                // inject logger
			telemetry.NewTelemetry,          // inject telemetry
			telemetry.NewTracerFactory,      // inject telemetry tracer factory
			results.NewRunState,             // inject run counters
			results.NewReporter,             // inject summary reporter
			harness.NewInvocationFromConfig, // resolve the target
			harness.NewHarness,              // inject test harness
			crash.NewFindingStore,           // inject findings store
			fuzz.NewFuzzRunner,              // inject fuzz runner
		),
		corpus.CorpusGrabbersModule, // inject seed grabbers
		explore.StrategiesModule,    // inject batch and walk strategies
		fx.Invoke(fuzz.NewCampaign),
		fx.Populate(&runState),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			zlogger := fxevent.ZapLogger{Logger: log}
			zlogger.UseLogLevel(zap.DebugLevel)
			return &zlogger
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	sig := <-app.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintln(os.Stderr, "Error: failed to stop cleanly:", err)
	}

	if sig.ExitCode != 0 || runState.Failed() {
		return errFailuresFound
	}
	return nil
}
