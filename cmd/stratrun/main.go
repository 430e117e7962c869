package main

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "stratrun"
	version = "v1.2.0"
)

// errGated signals a run-gate early exit; main translates it to exit
// code 2 so schedulers can tell "nothing new" from a real failure.
var errGated = errors.New("run gate: no timeframe advanced")

func main() {
	// .env is optional and only feeds the STRATRUN_* overrides.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Multi-timeframe STRAT scanner over a rotating equity/ETF universe",
		Version: version,
		Long: `stratrun scans a rotating universe of equities and ETFs, classifies every
bar under the four-state STRAT taxonomy across 1H through yearly
timeframes, detects two-bar NEXT setups on the last closed pair, scores
higher-timeframe bias, and atomically publishes a snapshot for the
dashboard. Strictly batch, strictly last-closed-bar: it never repaints on
in-progress bars.`,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newUniverseCmd())
	rootCmd.AddCommand(newScheduleCmd())

	cobra.OnInitialize(func() {
		level, err := zerolog.ParseLevel(mustString(rootCmd.PersistentFlags().GetString("log-level")))
		if err == nil {
			zerolog.SetGlobalLevel(level)
		}
	})

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errGated) {
			os.Exit(2)
		}
		log.Error().Err(err).Msg("stratrun failed")
		os.Exit(1)
	}
}

func mustString(s string, _ error) string { return s }
