package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/stratrun/internal/domain/bars"
)

func sampleFrame(n int) bars.Frame {
	var f bars.Frame
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		f = append(f, bars.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      100 + float64(i),
			High:      101 + float64(i),
			Low:       99 + float64(i),
			Close:     100.5 + float64(i),
			Volume:    1000,
		})
	}
	return f
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := NewFileStore(t.TempDir())
	f := sampleFrame(3)

	s.Put("AAPL", bars.IntervalDaily, f)
	got, ok := s.Get("AAPL", bars.IntervalDaily, time.Hour)
	require.True(t, ok)
	require.Len(t, got, 3)
	assert.Equal(t, f[0].Open, got[0].Open)
	assert.True(t, f[2].Timestamp.Equal(got[2].Timestamp))
}

func TestFileStoreAgeGate(t *testing.T) {
	s := NewFileStore(t.TempDir())
	s.Put("AAPL", bars.IntervalDaily, sampleFrame(3))

	path := s.path("AAPL", bars.IntervalDaily)
	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	_, ok := s.Get("AAPL", bars.IntervalDaily, time.Hour)
	assert.False(t, ok, "aged-out entry is a miss")

	got, ok := s.GetStale("AAPL", bars.IntervalDaily)
	require.True(t, ok, "stale lookup ignores age")
	assert.Len(t, got, 3)
}

func TestFileStoreCorruptFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	path := s.path("AAPL", bars.IntervalDaily)
	require.NoError(t, os.WriteFile(path, []byte("garbage,not,a,frame\n1,2"), 0o644))

	_, ok := s.Get("AAPL", bars.IntervalDaily, time.Hour)
	assert.False(t, ok)
	_, ok = s.GetStale("AAPL", bars.IntervalDaily)
	assert.False(t, ok)
}

func TestFileStoreMissingEntry(t *testing.T) {
	s := NewFileStore(t.TempDir())
	_, ok := s.Get("NOPE", bars.IntervalDaily, time.Hour)
	assert.False(t, ok)
	_, ok = s.GetStale("NOPE", bars.IntervalDaily)
	assert.False(t, ok)
}

func TestFileStoreEmptyPutIsNoop(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	s.Put("AAPL", bars.IntervalDaily, bars.Frame{})
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStorePathSanitizesSymbols(t *testing.T) {
	s := NewFileStore("/cache")
	assert.Equal(t, filepath.Join("/cache", "BRK-B_1d.csv"), s.path("BRK-B", bars.IntervalDaily))
	assert.Equal(t, filepath.Join("/cache", "GSPC_60m.csv"), s.path("^GSPC", bars.Interval60m))
	assert.Equal(t, filepath.Join("/cache", "A_B_1d.csv"), s.path("A/B", bars.IntervalDaily))
}

func TestEncodeDecodeFrame(t *testing.T) {
	f := sampleFrame(4)
	got, err := decodeFrame(encodeFrame(f))
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, f[1].Close, got[1].Close)

	_, err = decodeFrame([]byte("timestamp,open\n"))
	assert.Error(t, err)
	_, err = decodeFrame([]byte("timestamp,open,high,low,close,volume\nnot-a-time,1,2,3,4,5\n"))
	assert.Error(t, err)
}
