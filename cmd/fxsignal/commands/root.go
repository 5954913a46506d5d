package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/fxsignal/internal/engine"
	"github.com/wonny/fxsignal/internal/feed"
	"github.com/wonny/fxsignal/internal/gate"
	"github.com/wonny/fxsignal/internal/signal"
	"github.com/wonny/fxsignal/pkg/config"
	"github.com/wonny/fxsignal/pkg/logger"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fxsignal",
	Short: "fxsignal - forex signal generation and evaluation pipeline",
	Long: `fxsignal analyzes forex candle history with technical indicators,
generates candidate trading signals and filters them through a
multi-factor quality gate.

Usage:
  go run ./cmd/fxsignal [command]

Examples:
  go run ./cmd/fxsignal analyze --pair EUR/USD --interval 5min
  go run ./cmd/fxsignal run --pair EUR/USD --interval 5min`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// bootstrap loads config and wires the full pipeline.
func bootstrap() (*config.Config, *engine.Engine, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Options{Level: level, Format: cfg.LogFormat})

	fetcher := feed.NewFetcher(cfg.Feed, log)
	generator := signal.NewGenerator(log)
	qualityGate := gate.New(cfg.Gate, log)
	eng := engine.New(cfg.Engine, fetcher, generator, qualityGate, log)

	return cfg, eng, log, nil
}
