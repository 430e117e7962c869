package universe

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotateWraparound(t *testing.T) {
	pool := []string{"A", "B", "C", "D", "E"}

	// Offset near the end wraps to the front.
	got, next := rotate(pool, 4, 2)
	assert.Equal(t, []string{"E", "A"}, got)
	assert.Equal(t, 1, next)

	got, next = rotate(pool, next, 2)
	assert.Equal(t, []string{"B", "C"}, got)
	assert.Equal(t, 3, next)

	got, next = rotate(pool, next, 2)
	assert.Equal(t, []string{"D", "E"}, got)
	assert.Equal(t, 0, next)
}

func TestRotateDegenerateInputs(t *testing.T) {
	got, next := rotate(nil, 3, 2)
	assert.Nil(t, got)
	assert.Equal(t, 0, next)

	// k larger than the pool clamps to one full pass.
	got, next = rotate([]string{"A", "B"}, 0, 10)
	assert.Equal(t, []string{"A", "B"}, got)
	assert.Equal(t, 0, next)

	// Stale offset beyond the pool size is reduced modulo n.
	got, _ = rotate([]string{"A", "B", "C"}, 7, 1)
	assert.Equal(t, []string{"B"}, got)
}

// Every pool symbol is visited exactly once per full rotation cycle.
func TestRotateFullCycleCoverage(t *testing.T) {
	pool := []string{"A", "B", "C", "D", "E", "F", "G"}
	k := 3
	seen := map[string]int{}
	offset := 0
	runs := (len(pool) + k - 1) / k // ceil
	for i := 0; i < runs; i++ {
		var batch []string
		batch, offset = rotate(pool, offset, k)
		for _, s := range batch {
			seen[s]++
		}
	}
	for _, s := range pool {
		assert.GreaterOrEqual(t, seen[s], 1, s)
	}
}

func TestRotationStatePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta", "state.json")

	// Missing file restarts at zero.
	assert.Equal(t, 0, LoadState(path).Offset)

	require.NoError(t, SaveState(path, RotationState{Offset: 42}))
	assert.Equal(t, 42, LoadState(path).Offset)
}

func TestLoadStateCorruptFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "state.json", "{not json")
	assert.Equal(t, 0, LoadState(path).Offset)

	path2 := writeFile(t, t.TempDir(), "state2.json", `{"offset": -3}`)
	assert.Equal(t, 0, LoadState(path2).Offset)
}

func buildTables() *Tables {
	return &Tables{
		Stocks: []Stock{
			{Ticker: "AAPL", MarketCap: 3e12},
			{Ticker: "MSFT", MarketCap: 2.9e12},
			{Ticker: "NVDA", MarketCap: 2e12},
			{Ticker: "SMID", MarketCap: 5e9},
			{Ticker: "TINY", MarketCap: 5e6}, // below the cap floor
		},
		ETFs: []string{"XLE", "XLF"},
	}
}

func TestSchedulerBuild(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	sched := &Scheduler{
		Config: SchedulerConfig{
			MinMarketCap:      1e7,
			PriorityTopStocks: 2,
			MaxTickersPerRun:  100,
			PriorityPerRun:    2,
			RotationPerRun:    2,
			CoreETFs:          []string{"SPY", "QQQ"},
		},
		StatePath: statePath,
	}

	batch, err := sched.Build(buildTables())
	require.NoError(t, err)

	// Core ETFs lead, then priority, then the rotation slice. TINY is
	// below the floor and never appears.
	assert.Equal(t, []string{"SPY", "QQQ", "AAPL", "MSFT", "NVDA", "SMID"}, batch.Symbols)
	// Expansion pool: eligible beyond the priority cut plus the ETF list.
	assert.Equal(t, 4, batch.PoolSize)
	assert.Equal(t, 2, batch.NextOffset)
	assert.Equal(t, 2, LoadState(statePath).Offset, "offset persists before the batch is returned")

	// Second run picks up where the first left off.
	batch2, err := sched.Build(buildTables())
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY", "QQQ", "AAPL", "MSFT", "XLE", "XLF"}, batch2.Symbols)
	assert.Equal(t, 0, batch2.NextOffset)
}

func TestSchedulerMaxTickersCap(t *testing.T) {
	sched := &Scheduler{
		Config: SchedulerConfig{
			MinMarketCap:      1e7,
			PriorityTopStocks: 2,
			MaxTickersPerRun:  3,
			PriorityPerRun:    2,
			RotationPerRun:    2,
			CoreETFs:          []string{"SPY"},
		},
		StatePath: filepath.Join(t.TempDir(), "state.json"),
	}
	batch, err := sched.Build(buildTables())
	require.NoError(t, err)
	assert.Len(t, batch.Symbols, 3)
	assert.Equal(t, "SPY", batch.Symbols[0], "core ETFs survive truncation")
}

func TestSchedulerDevMode(t *testing.T) {
	sched := &Scheduler{
		Config: SchedulerConfig{
			MinMarketCap:      1e7,
			PriorityTopStocks: 2,
			MaxTickersPerRun:  100,
			PriorityPerRun:    2,
			RotationPerRun:    2,
			CoreETFs:          []string{"SPY"},
			DevMode:           true,
			DevTickersLimit:   2,
		},
		StatePath: filepath.Join(t.TempDir(), "state.json"),
	}
	batch, err := sched.Build(buildTables())
	require.NoError(t, err)
	assert.Len(t, batch.Symbols, 2)
}

func TestSchedulerDedupesAcrossPools(t *testing.T) {
	tables := buildTables()
	// XLE is both a core ETF and in the expansion pool.
	sched := &Scheduler{
		Config: SchedulerConfig{
			MinMarketCap:      1e7,
			PriorityTopStocks: 2,
			MaxTickersPerRun:  100,
			PriorityPerRun:    2,
			RotationPerRun:    4,
			CoreETFs:          []string{"XLE"},
		},
		StatePath: filepath.Join(t.TempDir(), "state.json"),
	}
	batch, err := sched.Build(tables)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, s := range batch.Symbols {
		seen[s]++
	}
	for s, n := range seen {
		assert.Equal(t, 1, n, s)
	}
}
