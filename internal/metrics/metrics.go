package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan-level counters exposed on the optional /metrics endpoint. All are
// registered on the default registry so promhttp serves them as-is.
var (
	VendorFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stratrun",
		Name:      "vendor_fetches_total",
		Help:      "Vendor bar fetch attempts by interval and outcome.",
	}, []string{"interval", "outcome"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stratrun",
		Name:      "bar_cache_lookups_total",
		Help:      "Bar cache lookups by tier and outcome (hit, miss, stale_hit).",
	}, []string{"tier", "outcome"})

	SymbolsScanned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stratrun",
		Name:      "symbols_scanned_total",
		Help:      "Symbols that completed the per-symbol pipeline.",
	})

	SymbolsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stratrun",
		Name:      "symbols_skipped_total",
		Help:      "Symbols abandoned for missing or insufficient history.",
	})

	SetupsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stratrun",
		Name:      "setups_emitted_total",
		Help:      "NEXT setups emitted by timeframe.",
	}, []string{"tf"})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stratrun",
		Name:      "scan_duration_seconds",
		Help:      "Wall time of a full scan run.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	GateSkips = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stratrun",
		Name:      "gate_skips_total",
		Help:      "Runs short-circuited by the run gate.",
	})
)
