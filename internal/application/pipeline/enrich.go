package pipeline

import (
	"strings"

	"github.com/sawpanic/stratrun/internal/data/universe"
)

const unknownLabel = "Unknown"

// sectorETFs maps the core sector ETFs to their sector labels. A row
// whose ticker is itself a sector ETF gets its sector overridden and the
// industry pinned to "Sector ETF".
var sectorETFs = map[string]string{
	"XLK": "Technology",
	"XLF": "Financials",
	"XLE": "Energy",
	"XLV": "Health Care",
	"XLI": "Industrials",
	"XLP": "Consumer Staples",
	"XLY": "Consumer Discretionary",
	"XLB": "Materials",
	"XLU": "Utilities",
	"XLRE": "Real Estate",
	"XLC": "Communication Services",
}

// Enrichment is the joined sector/industry/ETF-membership annotation for
// one ticker.
type Enrichment struct {
	Sector     string
	Industry   string
	ETFs       string // pipe-delimited, snapshot form
	ETFsPretty string
}

// Enricher left-joins reference tables onto result rows. Missing
// reference data degrades to "Unknown" fills; the scan proceeds.
type Enricher struct {
	tables *universe.Tables
}

func NewEnricher(t *universe.Tables) *Enricher {
	return &Enricher{tables: t}
}

func (e *Enricher) Annotate(ticker string) Enrichment {
	out := Enrichment{Sector: unknownLabel, Industry: unknownLabel}
	if e == nil || e.tables == nil {
		return out
	}

	if s, ok := e.tables.Sectors[ticker]; ok && s != "" {
		out.Sector = s
	}
	if ind, ok := e.tables.Industries[ticker]; ok && ind != "" {
		out.Industry = ind
	}
	if sector, ok := sectorETFs[ticker]; ok {
		out.Sector = sector
		out.Industry = "Sector ETF"
	}

	if etfs := e.tables.Holdings[ticker]; len(etfs) > 0 {
		out.ETFs = strings.Join(etfs, "|")
		out.ETFsPretty = strings.Join(etfs, ", ")
	}
	return out
}
