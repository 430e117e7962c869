package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/stratrun/internal/application/gate"
	"github.com/sawpanic/stratrun/internal/application/pipeline"
	"github.com/sawpanic/stratrun/internal/application/snapshot"
	"github.com/sawpanic/stratrun/internal/config"
	"github.com/sawpanic/stratrun/internal/data/cache"
	"github.com/sawpanic/stratrun/internal/data/universe"
	"github.com/sawpanic/stratrun/internal/data/vendor"
	"github.com/sawpanic/stratrun/internal/domain/bars"
	"github.com/sawpanic/stratrun/internal/domain/setups"
	ophttp "github.com/sawpanic/stratrun/internal/interfaces/http"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one full scan and publish the snapshot",
		RunE:  runScan,
	}
	cmd.Flags().Bool("dev", false, "Dev mode: truncate the universe")
	cmd.Flags().Bool("no-gate", false, "Skip the run-gate pre-flight")
	cmd.Flags().Int("workers", 0, "Override scan worker count")
	cmd.Flags().Int("max-tickers", 0, "Override per-run ticker cap")
	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if dev, _ := cmd.Flags().GetBool("dev"); dev {
		cfg.DevMode = true
	}
	if noGate, _ := cmd.Flags().GetBool("no-gate"); noGate {
		cfg.GateEnabled = false
	}
	if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
		cfg.ScanWorkers = n
	}
	if n, _ := cmd.Flags().GetInt("max-tickers"); n > 0 {
		cfg.MaxTickersPerRun = n
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ops *ophttp.Server
	if cfg.MetricsAddr != "" {
		ops = ophttp.NewServer(cfg.MetricsAddr, version)
		ops.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = ops.Shutdown(shutdownCtx)
		}()
	}

	scan := buildScan(&cfg)
	summary, err := scan.Run(ctx)
	if err != nil {
		return err
	}
	if summary.Gated {
		return errGated
	}
	return nil
}

// buildScan wires the component graph from config. Everything is explicit:
// no globals beyond the metrics registry.
func buildScan(cfg *config.Config) *pipeline.Scan {
	store := buildCache(cfg)

	fetcher := &vendor.Fetcher{
		Source: vendor.NewClient(vendor.ClientConfig{
			BaseURL:        cfg.VendorBaseURL,
			RequestTimeout: cfg.RequestTimeout(),
			RPS:            cfg.VendorRPS,
			Burst:          cfg.VendorBurst,
		}),
		Cache:             store,
		TTL:               cfg.CacheTTL(),
		IntradayMaxPeriod: cfg.IntradayMaxPeriod,
	}

	oracle := bars.Oracle{}

	var g *gate.Gate
	if cfg.GateEnabled {
		g = &gate.Gate{
			Loader:    fetcher,
			Oracle:    oracle,
			Reference: cfg.ReferenceSymbol,
			StatePath: cfg.LastRunPath(),
			Targets:   bars.ScanTimeframes,
		}
	}

	return &pipeline.Scan{
		Source: &universe.Source{
			Paths: universe.Paths{
				Stocks:   cfg.StocksPath(),
				ETFs:     cfg.ETFsPath(),
				Sectors:  cfg.SectorsPath(),
				Holdings: cfg.HoldingsPath(),
			},
			TTL: cfg.UniverseCacheTTL(),
		},
		Scheduler: &universe.Scheduler{
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
			StatePath: cfg.RotationStatePath(),
		},
		Orchestrator: &pipeline.Orchestrator{
			Loader:         fetcher,
			Oracle:         oracle,
			Detector:       setups.Detector{Oracle: oracle, EnableContinuations: cfg.EnableContinuations},
			DailyPeriod:    "max",
			IntradayPeriod: cfg.IntradayMaxPeriod,
		},
		Writer: &snapshot.Writer{
			ResultsCSVPath:  cfg.ResultsCSVPath(),
			ResultsJSONPath: cfg.ResultsJSONPath(),
			ContextCSVPath:  cfg.ContextCSVPath(),
		},
		Gate:    g,
		Workers: cfg.ScanWorkers,
	}
}

func buildCache(cfg *config.Config) cache.Store {
	file := cache.NewFileStore(cfg.OHLCCacheDir())
	if cfg.RedisAddr == "" {
		return file
	}
	rs := cache.NewRedisStore(redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	}))
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, using file cache only")
		return file
	}
	return &cache.Tiered{Hot: rs, Cold: file}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
