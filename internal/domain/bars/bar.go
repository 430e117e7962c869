package bars

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Bar is one OHLCV bar. Timestamp is an absolute instant; the labeling
// convention (bar start vs bar end) is a property of the Timeframe that
// produced it, not of the bar itself.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Frame is a finite sequence of bars for one (symbol, interval), sorted
// ascending and unique by timestamp once Normalize has run.
type Frame []Bar

var (
	marketOnce sync.Once
	marketLoc  *time.Location
)

// MarketLocation returns the exchange-local zone used for all closed-bar
// and calendar-bucket decisions.
func MarketLocation() *time.Location {
	marketOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			// Zoneinfo is bundled on every supported platform; a failure
			// here means a broken install, not a recoverable condition.
			panic("bars: load America/New_York: " + err.Error())
		}
		marketLoc = loc
	})
	return marketLoc
}

// Normalize returns a copy sorted ascending by timestamp, deduplicated on
// timestamp (first occurrence wins), with non-finite OHLC rows dropped.
func (f Frame) Normalize() Frame {
	if len(f) == 0 {
		return Frame{}
	}
	out := make(Frame, 0, len(f))
	for _, b := range f {
		if !finite(b.Open) || !finite(b.High) || !finite(b.Low) || !finite(b.Close) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	dedup := out[:0]
	for _, b := range out {
		if len(dedup) > 0 && b.Timestamp.Equal(dedup[len(dedup)-1].Timestamp) {
			continue
		}
		dedup = append(dedup, b)
	}
	return dedup
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// MedianSpacing infers the bar size from the median timestamp delta.
// Returns 0 when the frame is too short to infer.
func (f Frame) MedianSpacing() time.Duration {
	if len(f) < 3 {
		return 0
	}
	n := f.Normalize()
	if len(n) < 3 {
		return 0
	}
	diffs := make([]time.Duration, 0, len(n)-1)
	for i := 1; i < len(n); i++ {
		diffs = append(diffs, n[i].Timestamp.Sub(n[i-1].Timestamp))
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i] < diffs[j] })
	return diffs[len(diffs)/2]
}

// LastClose returns the close of the final bar, or false on an empty frame.
func (f Frame) LastClose() (float64, bool) {
	if len(f) == 0 {
		return 0, false
	}
	return f[len(f)-1].Close, true
}

// At resolves a negative index from the end of the frame, pandas-style:
// -1 is the final bar, -2 the one before it.
func (f Frame) At(idx int) (Bar, bool) {
	pos := len(f) + idx
	if pos < 0 || pos >= len(f) {
		return Bar{}, false
	}
	return f[pos], true
}
