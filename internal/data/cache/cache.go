package cache

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/sawpanic/stratrun/internal/domain/bars"
)

// Store is the bar-cache contract the fetcher consumes. A Get hit requires
// the entry to exist and be younger than maxAge. GetStale ignores age and
// exists only as a last-resort fallback when a live fetch fails. Put is
// best-effort: implementations log failures and move on.
type Store interface {
	Get(symbol string, interval bars.Interval, maxAge time.Duration) (bars.Frame, bool)
	GetStale(symbol string, interval bars.Interval) (bars.Frame, bool)
	Put(symbol string, interval bars.Interval, f bars.Frame)
}

var frameHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

// encodeFrame renders a frame as the flat CSV form shared by the file and
// redis tiers.
func encodeFrame(f bars.Frame) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(frameHeader)
	for _, b := range f {
		_ = w.Write([]string{
			b.Timestamp.UTC().Format(time.RFC3339),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
		})
	}
	w.Flush()
	return buf.Bytes()
}

// decodeFrame parses the flat CSV form. Any malformed row or header makes
// the whole entry unusable; callers treat that as a miss.
func decodeFrame(data []byte) (bars.Frame, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) != len(frameHeader) {
		return nil, fmt.Errorf("cache: malformed frame header")
	}
	out := make(bars.Frame, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(frameHeader) {
			return nil, fmt.Errorf("cache: malformed frame row")
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, err
		}
		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		out = append(out, bars.Bar{
			Timestamp: ts,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	return out.Normalize(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
