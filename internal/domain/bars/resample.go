package bars

import "time"

// downsampleSlack tolerates vendor spacing jitter when deciding whether a
// resample would actually be a down-sample (target finer than base).
const downsampleSlack = 1.25

// Resample aggregates a base-interval frame into timeframe buckets.
// Buckets are right-closed and right-labeled: 2H/3H/4H buckets sit on a
// start-of-day + 30 minute grid in market-local time (so the afternoon
// bucket closes at the 16:30 session anchor), weekly buckets end on
// Friday, and monthly/quarterly/yearly buckets end on the period-end date.
// Aggregation is open=first, high=max, low=min, close=last, volume=sum.
//
// D and 1H are identity passes of their base interval. A fixed-width
// target finer than the inferred base spacing returns an empty frame
// rather than fabricating bars; the guard does not apply to calendar
// targets.
func Resample(f Frame, tf Timeframe) Frame {
	n := f.Normalize()
	if len(n) == 0 {
		return Frame{}
	}

	switch tf {
	case TFD, TF1H:
		out := make(Frame, len(n))
		copy(out, n)
		return out
	}

	if tf.Intraday() {
		target := time.Duration(tf.Hours()) * time.Hour
		if med := n.MedianSpacing(); med > 0 && float64(med) > float64(target)*downsampleSlack {
			return Frame{}
		}
	}

	loc := MarketLocation()
	var out Frame
	var cur Bar
	var curLabel time.Time
	open := false

	flush := func() {
		if open {
			out = append(out, cur)
			open = false
		}
	}

	for _, b := range n {
		label := bucketLabel(b.Timestamp, tf, loc)
		if !open || !label.Equal(curLabel) {
			flush()
			curLabel = label
			cur = Bar{Timestamp: label, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			open = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	flush()
	return out
}

// bucketLabel maps a bar timestamp to its right-closed bucket label.
// Intraday input bars are start-labeled 60m bars; a bar belongs to the
// bucket covering its start.
func bucketLabel(ts time.Time, tf Timeframe, loc *time.Location) time.Time {
	et := ts.In(loc)
	switch tf {
	case TF2H, TF3H, TF4H:
		day := time.Date(et.Year(), et.Month(), et.Day(), 0, 0, 0, 0, loc)
		rel := et.Hour()*60 + et.Minute() - 30
		if rel < 0 {
			rel = 0
		}
		h := tf.Hours() * 60
		k := rel / h
		return day.Add(time.Duration(30+(k+1)*h) * time.Minute)
	case TFW:
		// Week ends Friday; Saturday and Sunday roll into the next week.
		ahead := (int(time.Friday) - int(et.Weekday()) + 7) % 7
		d := et.AddDate(0, 0, ahead)
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	case TFM:
		return time.Date(et.Year(), et.Month()+1, 0, 0, 0, 0, 0, loc)
	case TFQ:
		endMonth := time.Month(((int(et.Month())-1)/3)*3 + 3)
		return time.Date(et.Year(), endMonth+1, 0, 0, 0, 0, 0, loc)
	case TFY:
		return time.Date(et.Year(), time.December, 31, 0, 0, 0, 0, loc)
	}
	return ts
}
