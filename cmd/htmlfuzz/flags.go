package main

import (
	"fmt"

	"htmlfuzz/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// applyFlags overrides cfg with every flag the user set explicitly.
func applyFlags(cmd *cobra.Command, cfg *config.AppConfig) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("workdir") {
		cfg.WorkingDir, err = flags.GetString("workdir")
	}
	if err == nil && flags.Changed("seed") {
		cfg.RandomSeed, err = flags.GetUint64("seed")
	}
	if err == nil && flags.Changed("timeout") {
		cfg.HarnessConfig.Timeout, err = flags.GetDuration("timeout")
	}
	if err == nil && flags.Changed("parallel") {
		cfg.Parallelism, err = flags.GetInt("parallel")
	}
	if err == nil && flags.Changed("phases") {
		cfg.ExplorerConfig.Phases, err = flags.GetStringSlice("phases")
	}
	if err == nil && flags.Changed("batch-size") {
		cfg.ExplorerConfig.BatchSize, err = flags.GetInt("batch-size")
	}
	if err == nil && flags.Changed("max-chain") {
		cfg.ExplorerConfig.MaxChain, err = flags.GetInt("max-chain")
	}
	if err == nil && flags.Changed("rounds") {
		cfg.ExplorerConfig.Rounds, err = flags.GetInt("rounds")
	}
	if err == nil && flags.Changed("corpus") {
		cfg.CorpusFile, err = flags.GetString("corpus")
	}
	if err == nil && flags.Changed("findings") {
		cfg.FindingsDir, err = flags.GetString("findings")
	}
	if err == nil && flags.Changed("log-level") {
		cfg.LogLevel, err = flags.GetString("log-level")
	}
	if err != nil {
		return err
	}

	mode, err := flags.GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "auto":
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("%w: --color must be auto, on or off, got %q", config.ErrInvalidConfig, mode)
	}
	return nil
}
