package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/stratrun/internal/application/snapshot"
	"github.com/sawpanic/stratrun/internal/data/vendor"
	"github.com/sawpanic/stratrun/internal/domain/bars"
	"github.com/sawpanic/stratrun/internal/domain/setups"
	"github.com/sawpanic/stratrun/internal/metrics"
)

// ErrInsufficientHistory marks a symbol abandoned for having no daily
// frame or fewer than minDailyBars of it. Counted as skipped, never fatal.
var ErrInsufficientHistory = errors.New("insufficient daily history")

const minDailyBars = 50

// Base-interval plausibility bounds. A 60m feed whose median spacing
// exceeds 2h, or a daily feed whose spacing undercuts 12h, is not the
// interval it claims to be; derived timeframes are skipped rather than
// built on it.
const (
	maxHourlySpacing = 2 * time.Hour
	minDailySpacing  = 12 * time.Hour
)

// OHLCLoader is the fetcher surface the orchestrator drives.
type OHLCLoader interface {
	LoadOHLC(ctx context.Context, symbol string, interval bars.Interval, period string) bars.Frame
}

// Orchestrator runs the full per-symbol pipeline: fetch base intervals,
// derive timeframes, classify, score bias, detect setups, annotate.
type Orchestrator struct {
	Loader   OHLCLoader
	Oracle   bars.Oracle
	Detector setups.Detector
	Enricher *Enricher

	// DailyPeriod is the history hint for the daily feed ("max" unless
	// configured down for dev runs).
	DailyPeriod string
	// IntradayPeriod is the hint for the 60m feed; the fetcher clamps it.
	IntradayPeriod string

	Now func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// ScanSymbol produces the result rows and the context row for one symbol.
// Every error is local: callers treat ErrInsufficientHistory as a skip
// and anything else as a zero-row symbol.
func (o *Orchestrator) ScanSymbol(ctx context.Context, ticker string) ([]snapshot.ResultRow, *snapshot.ContextRow, error) {
	ticker = vendor.Normalize(ticker)
	if ticker == "" {
		return nil, nil, fmt.Errorf("unusable ticker")
	}

	daily := o.Loader.LoadOHLC(ctx, ticker, bars.IntervalDaily, o.DailyPeriod)
	if len(daily) < minDailyBars {
		return nil, nil, ErrInsufficientHistory
	}
	hourly := o.Loader.LoadOHLC(ctx, ticker, bars.Interval60m, o.IntradayPeriod)

	frames := o.buildFrames(daily, hourly)

	classes := make(map[bars.Timeframe][]bars.Class, len(frames))
	for tf, f := range frames {
		classes[tf] = bars.Classify(f)
	}

	closedCtx, liveCtx := o.contexts(frames, classes)
	score := setups.Score(closedCtx)

	price, _ := hourly.LastClose()
	if price == 0 {
		price, _ = daily.LastClose()
	}

	scanTime := o.now().In(bars.MarketLocation()).Format(time.RFC3339)
	enrich := o.Enricher.Annotate(ticker)

	var rows []snapshot.ResultRow
	for _, tf := range bars.ScanTimeframes {
		f, ok := frames[tf]
		if !ok || len(f) < 3 {
			continue
		}
		for _, s := range o.Detector.Detect(f, classes[tf], tf) {
			metrics.SetupsEmitted.WithLabelValues(string(tf)).Inc()
			rows = append(rows, snapshot.ResultRow{
				ScanTime:       scanTime,
				Ticker:         ticker,
				ChartURL:       fmt.Sprintf("https://finance.yahoo.com/quote/%s/chart", ticker),
				CurrentPrice:   price,
				TF:             string(tf),
				Pattern:        s.Pattern,
				Setup:          s.Name,
				Dir:            string(s.Direction),
				Entry:          s.Entry,
				Stop:           s.Stop,
				Score:          score,
				Aligned:        string(setups.Align(s.Direction, score)),
				LastStrat:      string(s.LastClass),
				LastCandleType: candleType(s.LastOpen, s.LastClose),
				Actionable:     s.Actionable,
				Note:           s.Note,
				Sector:         enrich.Sector,
				Industry:       enrich.Industry,
				ETFs:           enrich.ETFs,
				ETFsPretty:     enrich.ETFsPretty,
				CtxY:           string(closedCtx[bars.TFY]),
				CtxQ:           string(closedCtx[bars.TFQ]),
				CtxM:           string(closedCtx[bars.TFM]),
				CtxW:           string(closedCtx[bars.TFW]),
				CtxD:           string(closedCtx[bars.TFD]),
			})
		}
	}

	ctxRow := &snapshot.ContextRow{
		ScanTime:     scanTime,
		Ticker:       ticker,
		CurrentPrice: price,
		CtxYClosed:   string(closedCtx[bars.TFY]),
		CtxQClosed:   string(closedCtx[bars.TFQ]),
		CtxMClosed:   string(closedCtx[bars.TFM]),
		CtxWClosed:   string(closedCtx[bars.TFW]),
		CtxDClosed:   string(closedCtx[bars.TFD]),
		CtxYLive:     string(liveCtx[bars.TFY]),
		CtxQLive:     string(liveCtx[bars.TFQ]),
		CtxMLive:     string(liveCtx[bars.TFM]),
		CtxWLive:     string(liveCtx[bars.TFW]),
		CtxDLive:     string(liveCtx[bars.TFD]),
		Score:        score,
		Sector:       enrich.Sector,
		Industry:     enrich.Industry,
	}
	return rows, ctxRow, nil
}

// buildFrames assigns the direct timeframes and derives the rest, guarding
// each derivation on base-interval plausibility.
func (o *Orchestrator) buildFrames(daily, hourly bars.Frame) map[bars.Timeframe]bars.Frame {
	frames := map[bars.Timeframe]bars.Frame{
		bars.TFD: daily.Normalize(),
	}

	if spacing := daily.MedianSpacing(); spacing >= minDailySpacing {
		for _, tf := range []bars.Timeframe{bars.TFW, bars.TFM, bars.TFQ, bars.TFY} {
			if f := bars.Resample(daily, tf); len(f) > 0 {
				frames[tf] = f
			}
		}
	} else {
		log.Debug().Dur("spacing", spacing).Msg("daily feed spacing implausible, skipping calendar timeframes")
	}

	if len(hourly) == 0 {
		return frames
	}
	frames[bars.TF1H] = hourly.Normalize()

	if spacing := hourly.MedianSpacing(); spacing > 0 && spacing <= maxHourlySpacing {
		for _, tf := range []bars.Timeframe{bars.TF2H, bars.TF3H, bars.TF4H} {
			if f := bars.Resample(hourly, tf); len(f) > 0 {
				frames[tf] = f
			}
		}
	} else {
		log.Debug().Dur("spacing", spacing).Msg("hourly feed spacing implausible, skipping derived intraday timeframes")
	}
	return frames
}

// contexts extracts the last-closed and live classifications for the bias
// timeframes. The detector never reads past the closed index; the live
// view exists only for the context artifact.
func (o *Orchestrator) contexts(frames map[bars.Timeframe]bars.Frame, classes map[bars.Timeframe][]bars.Class) (setups.Context, setups.Context) {
	closed := setups.Context{}
	live := setups.Context{}
	for _, tf := range bars.ContextTimeframes {
		f, ok := frames[tf]
		if !ok || len(f) < 3 {
			continue
		}
		cls := classes[tf]
		live[tf] = cls[len(f)-1]
		pos := len(f) + o.Oracle.LastClosedIndex(tf, f)
		if pos >= 1 {
			closed[tf] = cls[pos]
		}
	}
	return closed, live
}

func candleType(open, close float64) string {
	switch {
	case close > open:
		return "green"
	case close < open:
		return "red"
	}
	return "doji"
}
