package setups

import (
	"fmt"

	"github.com/sawpanic/stratrun/internal/domain/bars"
)

// Detector emits NEXT plans from the last closed pair of bars on a
// timeframe. The oracle decides which pair that is.
type Detector struct {
	Oracle bars.Oracle

	// EnableContinuations unlocks the pure 2-2 continuation and reversal
	// plans. Off by default: directional-only pairs are noise for the
	// dashboard this feeds.
	EnableContinuations bool
}

// Detect inspects the last closed pair (prev, last) of a classified frame.
// classes must be index-aligned with the frame (as returned by
// bars.Classify). Frames shorter than 3 bars produce nothing.
//
// Noise filter: unless continuations are enabled, at least one of the pair
// must be an inside (1) or outside (3) bar.
func (d Detector) Detect(f bars.Frame, classes []bars.Class, tf bars.Timeframe) []Setup {
	if len(f) < 3 || len(classes) != len(f) {
		return nil
	}

	lastPos := len(f) + d.Oracle.LastClosedIndex(tf, f)
	prevPos := lastPos - 1
	// prevPos 0 would pair against the unclassified first bar and emit a
	// malformed pattern; both bars of the pair must carry a class.
	if prevPos < 1 || lastPos >= len(f) {
		return nil
	}

	prev, last := f[prevPos], f[lastPos]
	prevClass, lastClass := classes[prevPos], classes[lastPos]
	pattern := fmt.Sprintf("%s-%s", prevClass, lastClass)

	base := Setup{
		TF:            tf,
		Kind:          KindNext,
		Pattern:       pattern,
		PrevTimestamp: prev.Timestamp,
		LastTimestamp: last.Timestamp,
		PrevClass:     prevClass,
		LastClass:     lastClass,
		PrevOpen:      prev.Open,
		PrevHigh:      prev.High,
		PrevLow:       prev.Low,
		PrevClose:     prev.Close,
		LastOpen:      last.Open,
		LastHigh:      last.High,
		LastLow:       last.Low,
		LastClose:     last.Close,
	}

	bull := func(name, note string) Setup {
		s := base
		s.Name = name
		s.Direction = Bull
		s.Entry = last.High
		s.Stop = last.Low
		s.Actionable = fmt.Sprintf("ALERT if price > %.2f; stop < %.2f", last.High, last.Low)
		s.Note = note
		return s
	}
	bear := func(name, note string) Setup {
		s := base
		s.Name = name
		s.Direction = Bear
		s.Entry = last.Low
		s.Stop = last.High
		s.Actionable = fmt.Sprintf("ALERT if price < %.2f; stop > %.2f", last.Low, last.High)
		s.Note = note
		return s
	}

	var out []Setup

	if !prevClass.Directional() || !lastClass.Directional() {
		switch {
		case lastClass == bars.ClassInside:
			note := "Inside bar: next candle can break either direction."
			out = append(out,
				bull("INSIDE_BREAK_UP", note),
				bear("INSIDE_BREAK_DOWN", note),
			)
		case lastClass == bars.ClassOutside:
			note := "Outside bar: next candle can take either side of the expanded range."
			out = append(out,
				bull("OUTSIDE_RANGE_BREAK_UP", note),
				bear("OUTSIDE_RANGE_BREAK_DOWN", note),
			)
		case prevClass == bars.ClassInside && lastClass == bars.ClassUp:
			out = append(out, bear("REVSTRAT_BEAR", "RevStrat: after 1-2U, watch for 2D reversal."))
		case prevClass == bars.ClassInside && lastClass == bars.ClassDown:
			out = append(out, bull("REVSTRAT_BULL", "RevStrat: after 1-2D, watch for 2U reversal."))
		}
		return out
	}

	if !d.EnableContinuations {
		return nil
	}

	// Pure directional pairs, gated behind the toggle.
	switch {
	case prevClass == bars.ClassUp && lastClass == bars.ClassUp:
		out = append(out, bull("TWO_TWO_CONTINUATION_UP", "2-2 continuation: trend intact while highs keep breaking."))
	case prevClass == bars.ClassDown && lastClass == bars.ClassDown:
		out = append(out, bear("TWO_TWO_CONTINUATION_DOWN", "2-2 continuation: trend intact while lows keep breaking."))
	case prevClass == bars.ClassUp && lastClass == bars.ClassDown:
		out = append(out, bear("TWO_TWO_REVERSAL_DOWN", "2-2 reversal: failed upside directional."))
	case prevClass == bars.ClassDown && lastClass == bars.ClassUp:
		out = append(out, bull("TWO_TWO_REVERSAL_UP", "2-2 reversal: failed downside directional."))
	}
	return out
}
