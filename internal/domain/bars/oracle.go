package bars

import "time"

// Daily and calendar periods are considered settled at 16:30 market time
// on their period-end date, not at midnight.
const (
	closeHour   = 16
	closeMinute = 30
)

// LastClosed means the final row of the frame is a closed bar; LastOpen
// means it is still forming and callers must use the row before it.
const (
	LastClosed = -1
	LastOpen   = -2
)

// Oracle decides which index of a frame is the last closed bar for a
// timeframe. Now is injectable for tests; nil means time.Now.
type Oracle struct {
	Now func() time.Time
}

func (o Oracle) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// LastClosedIndex returns LastClosed (-1) when the final row of the frame
// has fully elapsed, LastOpen (-2) when it is still in progress. Rules per
// timeframe, all evaluated in market-local time:
//
//   - Y/Q/M/W/D: the period-end label settles at 16:30 on the labeled
//     date; a future label is always open. The current calendar period is
//     therefore always open regardless of vendor labeling.
//   - 1H: vendor bars are start-labeled; closed once now >= label + 1h.
//   - 2H/3H/4H: synthesized bars are end-labeled; closed once now >= label.
//
// Callers must never inspect the row a LastOpen verdict excludes.
func (o Oracle) LastClosedIndex(tf Timeframe, f Frame) int {
	if len(f) == 0 {
		return LastOpen
	}
	now := o.now()
	last := f[len(f)-1].Timestamp

	switch tf.Labeling() {
	case LabelBarStart:
		if now.Before(last.Add(time.Duration(tf.Hours()) * time.Hour)) {
			return LastOpen
		}
		return LastClosed
	case LabelBarEnd:
		if now.Before(last) {
			return LastOpen
		}
		return LastClosed
	}

	loc := MarketLocation()
	et := last.In(loc)
	settle := time.Date(et.Year(), et.Month(), et.Day(), closeHour, closeMinute, 0, 0, loc)

	if tf == TFD {
		n := now.In(loc)
		sameDay := n.Year() == et.Year() && n.YearDay() == et.YearDay()
		if sameDay && now.Before(settle) {
			return LastOpen
		}
		return LastClosed
	}

	// Y/Q/M/W: a future period-end label, or a label whose 16:30 settle
	// has not passed, is still forming.
	if now.Before(settle) {
		return LastOpen
	}
	return LastClosed
}

// LastClosedBar resolves the oracle verdict to the bar itself. ok is false
// when the frame has no closed bar to offer.
func (o Oracle) LastClosedBar(tf Timeframe, f Frame) (Bar, bool) {
	return f.At(o.LastClosedIndex(tf, f))
}
