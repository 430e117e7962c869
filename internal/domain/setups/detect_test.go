package setups

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/stratrun/internal/domain/bars"
)

// settledOracle pins the clock well past every test bar so the final row
// of a daily frame is always closed.
func settledOracle() bars.Oracle {
	return bars.Oracle{Now: func() time.Time {
		return time.Date(2026, 8, 24, 12, 0, 0, 0, bars.MarketLocation())
	}}
}

func dailyFrame(hl ...[2]float64) bars.Frame {
	var f bars.Frame
	for i, pair := range hl {
		f = append(f, bars.Bar{
			Timestamp: time.Date(2024, 1, 1+i, 0, 0, 0, 0, bars.MarketLocation()),
			Open:      (pair[0] + pair[1]) / 2,
			High:      pair[0],
			Low:       pair[1],
			Close:     (pair[0] + pair[1]) / 2,
		})
	}
	return f
}

func TestDetectInsideBarEmitsBothDirections(t *testing.T) {
	// Pair (2U, 1): an inside bar after a directional bar arms both sides.
	f := dailyFrame([2]float64{100, 90}, [2]float64{105, 95}, [2]float64{103, 98})
	classes := bars.Classify(f)
	require.Equal(t, bars.ClassInside, classes[2])

	out := Detector{Oracle: settledOracle()}.Detect(f, classes, bars.TFD)
	require.Len(t, out, 2)

	up, down := out[0], out[1]
	assert.Equal(t, "INSIDE_BREAK_UP", up.Name)
	assert.Equal(t, Bull, up.Direction)
	assert.Equal(t, 103.0, up.Entry)
	assert.Equal(t, 98.0, up.Stop)

	assert.Equal(t, "INSIDE_BREAK_DOWN", down.Name)
	assert.Equal(t, Bear, down.Direction)
	assert.Equal(t, 98.0, down.Entry)
	assert.Equal(t, 103.0, down.Stop)

	for _, s := range out {
		assert.Equal(t, "2U-1", s.Pattern)
		assert.Equal(t, KindNext, s.Kind)
	}
}

func TestDetectRevStratBear(t *testing.T) {
	// Pair (1, 2U): the 2U out of an inside bar is a RevStrat short plan
	// with entry at the trigger bar's low and stop above its high.
	f := dailyFrame([2]float64{50, 48}, [2]float64{49.5, 48.5}, [2]float64{50.4, 48.9})
	classes := bars.Classify(f)
	require.Equal(t, bars.ClassInside, classes[1])
	require.Equal(t, bars.ClassUp, classes[2])

	out := Detector{Oracle: settledOracle()}.Detect(f, classes, bars.TFD)
	require.Len(t, out, 1)

	s := out[0]
	assert.Equal(t, "REVSTRAT_BEAR", s.Name)
	assert.Equal(t, Bear, s.Direction)
	assert.Equal(t, "1-2U", s.Pattern)
	assert.Equal(t, 48.9, s.Entry)
	assert.Equal(t, 50.4, s.Stop)
	assert.Contains(t, s.Actionable, "ALERT if price < 48.90")
}

func TestDetectRevStratBull(t *testing.T) {
	f := dailyFrame([2]float64{50, 48}, [2]float64{49.5, 48.5}, [2]float64{49.4, 47.9})
	classes := bars.Classify(f)
	require.Equal(t, bars.ClassDown, classes[2])

	out := Detector{Oracle: settledOracle()}.Detect(f, classes, bars.TFD)
	require.Len(t, out, 1)
	assert.Equal(t, "REVSTRAT_BULL", out[0].Name)
	assert.Equal(t, Bull, out[0].Direction)
	assert.Equal(t, 49.4, out[0].Entry)
	assert.Equal(t, 47.9, out[0].Stop)
}

func TestDetectOutsideBarEmitsBothDirections(t *testing.T) {
	f := dailyFrame([2]float64{100, 90}, [2]float64{99, 91}, [2]float64{101, 89})
	classes := bars.Classify(f)
	require.Equal(t, bars.ClassOutside, classes[2])

	out := Detector{Oracle: settledOracle()}.Detect(f, classes, bars.TFD)
	require.Len(t, out, 2)
	assert.Equal(t, "OUTSIDE_RANGE_BREAK_UP", out[0].Name)
	assert.Equal(t, "OUTSIDE_RANGE_BREAK_DOWN", out[1].Name)
	assert.Equal(t, "1-3", out[0].Pattern)
}

func TestDetectDirectionalPairIsNoise(t *testing.T) {
	// Pair (2U, 2U): no inside or outside bar anywhere, nothing to arm.
	f := dailyFrame([2]float64{100, 90}, [2]float64{102, 95}, [2]float64{104, 96})
	classes := bars.Classify(f)
	require.Equal(t, bars.ClassUp, classes[1])
	require.Equal(t, bars.ClassUp, classes[2])

	assert.Empty(t, Detector{Oracle: settledOracle()}.Detect(f, classes, bars.TFD))
}

func TestDetectContinuationsToggle(t *testing.T) {
	f := dailyFrame([2]float64{100, 90}, [2]float64{102, 95}, [2]float64{104, 96})
	classes := bars.Classify(f)

	d := Detector{Oracle: settledOracle(), EnableContinuations: true}
	out := d.Detect(f, classes, bars.TFD)
	require.Len(t, out, 1)
	assert.Equal(t, "TWO_TWO_CONTINUATION_UP", out[0].Name)
	assert.Equal(t, Bull, out[0].Direction)

	// 2U then 2D is a failed directional.
	f2 := dailyFrame([2]float64{100, 90}, [2]float64{102, 95}, [2]float64{101, 94})
	c2 := bars.Classify(f2)
	require.Equal(t, bars.ClassDown, c2[2])
	out = d.Detect(f2, c2, bars.TFD)
	require.Len(t, out, 1)
	assert.Equal(t, "TWO_TWO_REVERSAL_DOWN", out[0].Name)
	assert.Equal(t, Bear, out[0].Direction)
}

func TestDetectUsesPenultimatePairWhenLastBarOpen(t *testing.T) {
	// Clock mid-session on the final bar's date: the oracle excludes it
	// and the detector shifts to the pair before.
	loc := bars.MarketLocation()
	f := bars.Frame{
		{Timestamp: time.Date(2026, 8, 20, 0, 0, 0, 0, loc), High: 100, Low: 90, Open: 95, Close: 95},
		{Timestamp: time.Date(2026, 8, 21, 0, 0, 0, 0, loc), High: 105, Low: 95, Open: 100, Close: 100},
		{Timestamp: time.Date(2026, 8, 24, 0, 0, 0, 0, loc), High: 103, Low: 98, Open: 100, Close: 100},
	}
	classes := bars.Classify(f)

	midSession := bars.Oracle{Now: func() time.Time {
		return time.Date(2026, 8, 24, 12, 0, 0, 0, loc)
	}}
	out := Detector{Oracle: midSession}.Detect(f, classes, bars.TFD)

	// The shifted pair would be (bar0, bar1) with bar0 unclassified: no plans.
	assert.Empty(t, out)
}

func TestDetectNeedsClassifiedPrevBar(t *testing.T) {
	// Mid-session on a 3-bar frame the oracle excludes the final row, so
	// the candidate pair is (bar0, bar1) -- but bar0 has no class. Nothing
	// may be emitted, even though bar1 is an inside bar.
	loc := bars.MarketLocation()
	f := bars.Frame{
		{Timestamp: time.Date(2026, 8, 20, 0, 0, 0, 0, loc), High: 100, Low: 90, Open: 95, Close: 95},
		{Timestamp: time.Date(2026, 8, 21, 0, 0, 0, 0, loc), High: 99, Low: 91, Open: 95, Close: 95},
		{Timestamp: time.Date(2026, 8, 24, 0, 0, 0, 0, loc), High: 98, Low: 92, Open: 95, Close: 95},
	}
	classes := bars.Classify(f)
	require.Equal(t, bars.ClassNone, classes[0])
	require.Equal(t, bars.ClassInside, classes[1])

	midSession := bars.Oracle{Now: func() time.Time {
		return time.Date(2026, 8, 24, 12, 0, 0, 0, loc)
	}}
	assert.Empty(t, Detector{Oracle: midSession}.Detect(f, classes, bars.TFD))
}

func TestDetectShortFrames(t *testing.T) {
	f := dailyFrame([2]float64{100, 90}, [2]float64{99, 91})
	classes := bars.Classify(f)
	assert.Empty(t, Detector{Oracle: settledOracle()}.Detect(f, classes, bars.TFD))
	assert.Empty(t, Detector{Oracle: settledOracle()}.Detect(f, []bars.Class{""}, bars.TFD))
}

// Entry and stop are always the extremes of the last closed bar, oriented
// by direction.
func TestDetectEntryStopInvariant(t *testing.T) {
	cases := []bars.Frame{
		dailyFrame([2]float64{100, 90}, [2]float64{105, 95}, [2]float64{103, 98}),
		dailyFrame([2]float64{100, 90}, [2]float64{99, 91}, [2]float64{101, 89}),
		dailyFrame([2]float64{50, 48}, [2]float64{49.5, 48.5}, [2]float64{50.4, 48.9}),
	}
	for _, f := range cases {
		classes := bars.Classify(f)
		for _, s := range (Detector{Oracle: settledOracle()}).Detect(f, classes, bars.TFD) {
			last := f[len(f)-1]
			if s.Direction == Bull {
				assert.Equal(t, last.High, s.Entry, s.Name)
				assert.Equal(t, last.Low, s.Stop, s.Name)
			} else {
				assert.Equal(t, last.Low, s.Entry, s.Name)
				assert.Equal(t, last.High, s.Stop, s.Name)
			}
		}
	}
}
