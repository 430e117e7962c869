package universe

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/stratrun/internal/data/vendor"
	atomicio "github.com/sawpanic/stratrun/internal/io"
)

// RotationState is the persisted cursor into the expansion pool. It must
// survive process crashes, hence the rename-based write.
type RotationState struct {
	Offset int `json:"offset"`
}

// LoadState reads the rotation offset; a missing or corrupt file restarts
// the rotation at zero.
func LoadState(path string) RotationState {
	data, err := os.ReadFile(path)
	if err != nil {
		return RotationState{}
	}
	var st RotationState
	if err := json.Unmarshal(data, &st); err != nil || st.Offset < 0 {
		log.Warn().Str("path", path).Msg("rotation state unreadable, restarting rotation")
		return RotationState{}
	}
	return st
}

// SaveState persists the rotation offset atomically.
func SaveState(path string, st RotationState) error {
	if err := atomicio.WriteJSONAtomic(path, st); err != nil {
		return fmt.Errorf("persist rotation state: %w", err)
	}
	return nil
}

// SchedulerConfig holds the universe-building tunables.
type SchedulerConfig struct {
	MinMarketCap      float64
	PriorityTopStocks int
	MaxTickersPerRun  int
	PriorityPerRun    int
	RotationPerRun    int
	CoreETFs          []string
	DevMode           bool
	DevTickersLimit   int
}

// Scheduler assembles the per-run symbol batch: core ETFs always, a slice
// of the priority pool, and a deterministic round-robin slice of the
// expansion pool driven by the persisted offset. Exactly one scheduler
// runs per scan.
type Scheduler struct {
	Config    SchedulerConfig
	StatePath string
}

// Batch is the resolved universe for one run.
type Batch struct {
	Symbols    []string
	PoolSize   int
	NextOffset int
}

// Build selects this run's universe and advances the persisted rotation
// offset. Every expansion-pool symbol is visited exactly once per full
// rotation cycle.
func (s *Scheduler) Build(t *Tables) (*Batch, error) {
	cfg := s.Config

	var eligible []string
	for _, st := range t.Stocks {
		if st.MarketCap >= cfg.MinMarketCap {
			eligible = append(eligible, st.Ticker)
		}
	}

	cut := cfg.PriorityTopStocks
	if cut > len(eligible) {
		cut = len(eligible)
	}
	priority := eligible[:cut]
	if cfg.PriorityPerRun < len(priority) {
		priority = priority[:cfg.PriorityPerRun]
	}

	pool := dedupe(append(append([]string{}, eligible[cut:]...), t.ETFs...))

	state := LoadState(s.StatePath)
	rotation, nextOffset := rotate(pool, state.Offset, cfg.RotationPerRun)
	if err := SaveState(s.StatePath, RotationState{Offset: nextOffset}); err != nil {
		return nil, err
	}

	var all []string
	for _, c := range cfg.CoreETFs {
		if n := vendor.Normalize(c); n != "" {
			all = append(all, n)
		}
	}
	all = append(all, priority...)
	all = append(all, rotation...)
	symbols := dedupe(all)

	if cfg.MaxTickersPerRun > 0 && len(symbols) > cfg.MaxTickersPerRun {
		symbols = symbols[:cfg.MaxTickersPerRun]
	}
	if cfg.DevMode && cfg.DevTickersLimit > 0 && len(symbols) > cfg.DevTickersLimit {
		symbols = symbols[:cfg.DevTickersLimit]
	}

	log.Info().
		Int("universe", len(symbols)).
		Int("priority", len(priority)).
		Int("rotation", len(rotation)).
		Int("pool", len(pool)).
		Int("next_offset", nextOffset).
		Msg("universe batch assembled")

	return &Batch{Symbols: symbols, PoolSize: len(pool), NextOffset: nextOffset}, nil
}

// rotate returns k symbols starting at offset with wraparound, plus the
// next offset. Deterministic given the pool and starting offset.
func rotate(pool []string, offset, k int) ([]string, int) {
	n := len(pool)
	if n == 0 || k <= 0 {
		return nil, 0
	}
	if k > n {
		k = n
	}
	start := offset % n
	if start < 0 {
		start += n
	}
	end := start + k
	var out []string
	if end <= n {
		out = append(out, pool[start:end]...)
	} else {
		out = append(out, pool[start:]...)
		out = append(out, pool[:end-n]...)
	}
	return out, (start + k) % n
}

// dedupe preserves first occurrence.
func dedupe(xs []string) []string {
	seen := make(map[string]struct{}, len(xs))
	var out []string
	for _, x := range xs {
		if x == "" {
			continue
		}
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}
