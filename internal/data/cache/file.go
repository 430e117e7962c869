package cache

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	atomicio "github.com/sawpanic/stratrun/internal/io"
	"github.com/sawpanic/stratrun/internal/domain/bars"
	"github.com/sawpanic/stratrun/internal/metrics"
)

// FileStore is the disk tier: one flat CSV per (symbol, interval) in a
// single directory, freshness judged by file mtime. Writers overwrite
// atomically; readers tolerate partial or corrupt files by reporting a
// miss. Last writer wins, which is acceptable because writes are
// idempotent by content for fresh vendor data.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(symbol string, interval bars.Interval) string {
	safe := strings.NewReplacer("/", "_", "^", "", "=", "_", " ", "").Replace(symbol)
	return filepath.Join(s.Dir, safe+"_"+string(interval)+".csv")
}

func (s *FileStore) Get(symbol string, interval bars.Interval, maxAge time.Duration) (bars.Frame, bool) {
	path := s.path(symbol, interval)
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) > maxAge {
		metrics.CacheLookups.WithLabelValues("file", "miss").Inc()
		return nil, false
	}
	f, ok := s.read(path)
	if !ok {
		metrics.CacheLookups.WithLabelValues("file", "miss").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("file", "hit").Inc()
	return f, true
}

func (s *FileStore) GetStale(symbol string, interval bars.Interval) (bars.Frame, bool) {
	f, ok := s.read(s.path(symbol, interval))
	if ok {
		metrics.CacheLookups.WithLabelValues("file", "stale_hit").Inc()
	}
	return f, ok
}

func (s *FileStore) Put(symbol string, interval bars.Interval, f bars.Frame) {
	if len(f) == 0 {
		return
	}
	path := s.path(symbol, interval)
	if err := atomicio.WriteFileAtomic(path, encodeFrame(f)); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("bar cache write failed")
	}
}

func (s *FileStore) read(path string) (bars.Frame, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	f, err := decodeFrame(data)
	if err != nil || len(f) == 0 {
		return nil, false
	}
	return f, true
}
