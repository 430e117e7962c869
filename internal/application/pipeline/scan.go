package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/stratrun/internal/application/gate"
	"github.com/sawpanic/stratrun/internal/application/snapshot"
	"github.com/sawpanic/stratrun/internal/data/universe"
	"github.com/sawpanic/stratrun/internal/metrics"
)

// Summary is the user-visible tally of one run.
type Summary struct {
	RunID       string
	Gated       bool
	OKSymbols   int
	Skipped     int
	RowsEmitted int
	Duration    time.Duration
}

// Scan drives a whole run: optional gate, universe assembly, the bounded
// worker pool over symbols, enrichment, and atomic snapshot publication.
type Scan struct {
	Source       *universe.Source
	Scheduler    *universe.Scheduler
	Orchestrator *Orchestrator
	Writer       *snapshot.Writer
	Gate         *gate.Gate // nil disables the pre-flight
	Workers      int
}

// Run executes one scan. Per-symbol failures reduce to zero rows; only
// configuration, reference-data, and snapshot errors propagate.
func (s *Scan) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()[:8]
	logger := log.With().Str("run_id", runID).Logger()

	if s.Gate != nil {
		shouldRun, debug, err := s.Gate.ShouldRun(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("run gate check failed, proceeding with full scan")
		} else if !shouldRun {
			metrics.GateSkips.Inc()
			logger.Info().Interface("timeframes", debug).Msg("no timeframe advanced a closed bar, skipping run")
			return &Summary{RunID: runID, Gated: true, Duration: time.Since(start)}, nil
		}
	}

	tables, err := s.Source.Load(ctx)
	if err != nil {
		return nil, err
	}
	batch, err := s.Scheduler.Build(tables)
	if err != nil {
		return nil, err
	}
	s.Orchestrator.Enricher = NewEnricher(tables)

	workers := s.Workers
	if workers <= 0 {
		workers = 8
	}

	var (
		mu      sync.Mutex
		rows    []snapshot.ResultRow
		ctxRows []snapshot.ContextRow
		ok      int
		skipped int
	)

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, ticker := range batch.Symbols {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(ticker string) {
			defer wg.Done()
			defer func() { <-sem }()

			symRows, ctxRow, err := s.Orchestrator.ScanSymbol(ctx, ticker)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrInsufficientHistory):
				skipped++
				metrics.SymbolsSkipped.Inc()
			case err != nil:
				skipped++
				metrics.SymbolsSkipped.Inc()
				logger.Debug().Err(err).Str("ticker", ticker).Msg("symbol contributed zero rows")
			default:
				ok++
				metrics.SymbolsScanned.Inc()
				rows = append(rows, symRows...)
				if ctxRow != nil {
					ctxRows = append(ctxRows, *ctxRow)
				}
			}
		}(ticker)
	}
	wg.Wait()

	if err := s.Writer.Write(rows, ctxRows); err != nil {
		return nil, err
	}
	if s.Gate != nil {
		if err := s.Gate.Record(ctx); err != nil {
			logger.Warn().Err(err).Msg("recording run gate state failed")
		}
	}

	sum := &Summary{
		RunID:       runID,
		OKSymbols:   ok,
		Skipped:     skipped,
		RowsEmitted: len(rows),
		Duration:    time.Since(start),
	}
	metrics.ScanDuration.Observe(sum.Duration.Seconds())
	logger.Info().
		Int("ok_symbols", sum.OKSymbols).
		Int("skipped", sum.Skipped).
		Int("rows_emitted", sum.RowsEmitted).
		Dur("duration", sum.Duration).
		Msg("scan complete")
	return sum, nil
}
