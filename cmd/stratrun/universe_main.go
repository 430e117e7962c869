package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sawpanic/stratrun/internal/data/universe"
)

func newUniverseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "universe",
		Short: "Resolve and print the next scan batch",
		Long: `Assembles the universe the next scan would use: core ETFs, the
priority pool slice, and the rotation slice. By default the rotation
offset is NOT advanced; pass --advance to persist it.`,
		RunE: runUniverse,
	}
	cmd.Flags().Bool("advance", false, "Persist the advanced rotation offset")
	return cmd
}

func runUniverse(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	src := &universe.Source{
		Paths: universe.Paths{
			Stocks:   cfg.StocksPath(),
			ETFs:     cfg.ETFsPath(),
			Sectors:  cfg.SectorsPath(),
			Holdings: cfg.HoldingsPath(),
		},
		TTL: cfg.UniverseCacheTTL(),
	}
	tables, err := src.Load(context.Background())
	if err != nil {
		return err
	}

	statePath := cfg.RotationStatePath()
	advance, _ := cmd.Flags().GetBool("advance")
	if !advance {
		// Dry run against a throwaway state copy so the real cursor
		// stays put.
		tmp, err := os.CreateTemp("", "stratrun-rotation-*.json")
		if err != nil {
			return err
		}
		tmp.Close()
		defer os.Remove(tmp.Name())
		if err := universe.SaveState(tmp.Name(), universe.LoadState(statePath)); err != nil {
			return err
		}
		statePath = tmp.Name()
	}

	sched := &universe.Scheduler{
		Config: universe.SchedulerConfig{
			MinMarketCap:      cfg.MinMarketCap,
			PriorityTopStocks: cfg.PriorityTopStocks,
			MaxTickersPerRun:  cfg.MaxTickersPerRun,
			PriorityPerRun:    cfg.PriorityPerRun,
			RotationPerRun:    cfg.RotationPerRun,
			CoreETFs:          cfg.CoreETFs,
			DevMode:           cfg.DevMode,
			DevTickersLimit:   cfg.DevTickersLimit,
		},
		StatePath: statePath,
	}
	batch, err := sched.Build(tables)
	if err != nil {
		return err
	}

	for _, s := range batch.Symbols {
		fmt.Println(s)
	}
	fmt.Fprintf(os.Stderr, "universe: %d symbols, pool %d, next offset %d\n",
		len(batch.Symbols), batch.PoolSize, batch.NextOffset)
	return nil
}
