package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/stratrun/internal/domain/bars"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run scans on a cron schedule until interrupted",
		Long: `Long-running mode: fires a scan on the configured cron spec
(market-local time). The run gate keeps redundant fires cheap; a fire
that finds no newly closed bar publishes nothing.`,
		RunE: runSchedule,
	}
	cmd.Flags().String("cron", "", "Cron spec override (default from config)")
	return cmd
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	spec := cfg.CronSpec
	if s, _ := cmd.Flags().GetString("cron"); s != "" {
		spec = s
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newScheduleRunner()
	_, err = c.AddFunc(spec, func() {
		scan := buildScan(&cfg)
		summary, err := scan.Run(ctx)
		switch {
		case err != nil:
			log.Error().Err(err).Msg("scheduled scan failed")
		case summary.Gated:
			log.Info().Msg("scheduled scan gated, nothing new")
		}
	})
	if err != nil {
		return err
	}

	log.Info().Str("cron", spec).Msg("scheduler started")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("scheduler stopped")
	return nil
}

// newScheduleRunner builds the cron runner. Fires that land while a scan
// is still in flight are skipped: exactly one scan writes the snapshot at
// a time, and the run gate makes the next fire cheap anyway.
func newScheduleRunner() *cron.Cron {
	return cron.New(
		cron.WithLocation(bars.MarketLocation()),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
	)
}

// cronLogger adapts the cron logger surface onto zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
