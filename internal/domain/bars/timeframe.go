package bars

import (
	"fmt"
	"strings"
	"time"
)

// Interval is a vendor-native fetch granularity. Only two exist.
type Interval string

const (
	IntervalDaily Interval = "1d"
	Interval60m   Interval = "60m"
)

// Duration returns the nominal bar width of the interval.
func (iv Interval) Duration() time.Duration {
	if iv == IntervalDaily {
		return 24 * time.Hour
	}
	return time.Hour
}

// Timeframe is a logical presentation granularity. Daily and 1H are direct
// passes of their base interval; 2H-4H are resampled from 60m, W-Y from
// daily.
type Timeframe string

const (
	TF1H Timeframe = "1H"
	TF2H Timeframe = "2H"
	TF3H Timeframe = "3H"
	TF4H Timeframe = "4H"
	TFD  Timeframe = "D"
	TFW  Timeframe = "W"
	TFM  Timeframe = "M"
	TFQ  Timeframe = "Q"
	TFY  Timeframe = "Y"
)

// ScanTimeframes is the fixed presentation order, highest first.
var ScanTimeframes = []Timeframe{TFY, TFQ, TFM, TFW, TFD, TF4H, TF3H, TF2H, TF1H}

// ContextTimeframes are the timeframes that feed the bias score.
var ContextTimeframes = []Timeframe{TFY, TFQ, TFM, TFW, TFD}

// Labeling states which instant a bar's timestamp names. Vendor-native 60m
// bars are stamped at the bar start; synthesized intraday bars are stamped
// at the bucket end; calendar bars carry the period-end date. Keeping this
// explicit is load-bearing for the closed-bar oracle.
type Labeling int

const (
	LabelBarStart Labeling = iota
	LabelBarEnd
	LabelPeriodEnd
)

// ParseTimeframe accepts the canonical uppercase forms.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToUpper(strings.TrimSpace(s)))
	switch tf {
	case TF1H, TF2H, TF3H, TF4H, TFD, TFW, TFM, TFQ, TFY:
		return tf, nil
	}
	return "", fmt.Errorf("unknown timeframe %q", s)
}

// Base returns the vendor interval the timeframe derives from.
func (tf Timeframe) Base() Interval {
	switch tf {
	case TF1H, TF2H, TF3H, TF4H:
		return Interval60m
	default:
		return IntervalDaily
	}
}

// Intraday reports whether the timeframe is an hour-multiple bucket.
func (tf Timeframe) Intraday() bool {
	switch tf {
	case TF1H, TF2H, TF3H, TF4H:
		return true
	}
	return false
}

// Hours returns the fixed bucket width for intraday timeframes, 0 for
// calendar timeframes.
func (tf Timeframe) Hours() int {
	switch tf {
	case TF1H:
		return 1
	case TF2H:
		return 2
	case TF3H:
		return 3
	case TF4H:
		return 4
	}
	return 0
}

// Labeling returns the timestamp convention bars of this timeframe carry.
func (tf Timeframe) Labeling() Labeling {
	switch tf {
	case TF1H:
		return LabelBarStart
	case TF2H, TF3H, TF4H:
		return LabelBarEnd
	default:
		return LabelPeriodEnd
	}
}
