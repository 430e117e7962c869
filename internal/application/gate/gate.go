package gate

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/stratrun/internal/domain/bars"
	atomicio "github.com/sawpanic/stratrun/internal/io"
)

// OHLCLoader matches the fetcher surface; redeclared locally to keep the
// gate free of a pipeline dependency.
type OHLCLoader interface {
	LoadOHLC(ctx context.Context, symbol string, interval bars.Interval, period string) bars.Frame
}

// Gate is the optional pre-flight: using one liquid reference symbol it
// derives every target timeframe, computes each one's last-closed
// timestamp, and compares against the values recorded after the previous
// run. If nothing advanced there is nothing new to scan.
type Gate struct {
	Loader    OHLCLoader
	Oracle    bars.Oracle
	Reference string // e.g. "SPY"
	StatePath string
	Targets   []bars.Timeframe
}

// ShouldRun reports whether any target timeframe has a newer closed bar
// than the recorded state. The debug map carries a per-timeframe verdict
// for the log line.
//
// Gating requires evidence: when the reference read yields no timestamp
// for any target (vendor outage, empty frames), the verdict is run, not
// skip. Only a clean "nothing advanced" comparison suppresses a scan.
func (g *Gate) ShouldRun(ctx context.Context) (bool, map[string]string, error) {
	recorded := g.loadState()
	current := g.lastClosed(ctx)

	debug := make(map[string]string, len(g.Targets))
	anyNew := false
	sawData := false
	for _, tf := range g.Targets {
		ts, ok := current[tf]
		if !ok {
			debug[string(tf)] = "no_data"
			continue
		}
		sawData = true
		prev := recorded[string(tf)]
		debug[string(tf)] = "last_closed=" + ts + " recorded=" + prev
		if prev != ts {
			anyNew = true
		}
	}
	if !sawData {
		log.Warn().Str("reference", g.Reference).Msg("run gate has no reference data, proceeding with full scan")
		return true, debug, nil
	}
	return anyNew, debug, nil
}

// Record persists the current last-closed timestamps. Called after a
// snapshot is successfully published; unknown timeframes keep their old
// values.
func (g *Gate) Record(ctx context.Context) error {
	state := g.loadState()
	for tf, ts := range g.lastClosed(ctx) {
		state[string(tf)] = ts
	}
	return atomicio.WriteJSONAtomic(g.StatePath, state)
}

func (g *Gate) loadState() map[string]string {
	state := map[string]string{}
	data, err := os.ReadFile(g.StatePath)
	if err != nil {
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		log.Warn().Err(err).Str("path", g.StatePath).Msg("run gate state unreadable, treating all timeframes as new")
		return map[string]string{}
	}
	return state
}

// lastClosed builds the minimal reference frames (daily for the calendar
// targets, 60m for the intraday ones) and resolves each target's
// last-closed timestamp.
func (g *Gate) lastClosed(ctx context.Context) map[bars.Timeframe]string {
	out := make(map[bars.Timeframe]string, len(g.Targets))

	needDaily, needHourly := false, false
	for _, tf := range g.Targets {
		if tf.Base() == bars.IntervalDaily {
			needDaily = true
		} else {
			needHourly = true
		}
	}

	var daily, hourly bars.Frame
	if needDaily {
		daily = g.Loader.LoadOHLC(ctx, g.Reference, bars.IntervalDaily, "1y")
	}
	if needHourly {
		hourly = g.Loader.LoadOHLC(ctx, g.Reference, bars.Interval60m, "30d")
	}

	loc := bars.MarketLocation()
	for _, tf := range g.Targets {
		base := daily
		if tf.Base() == bars.Interval60m {
			base = hourly
		}
		f := bars.Resample(base, tf)
		if len(f) < 3 {
			continue
		}
		if b, ok := g.Oracle.LastClosedBar(tf, f); ok {
			out[tf] = b.Timestamp.In(loc).Format(time.RFC3339)
		}
	}
	return out
}
