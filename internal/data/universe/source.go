package universe

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// RefreshFunc is the opaque reference-table collaborator: it pulls fresh
// symbols, ETF listings, sector and holdings tables from wherever they
// live upstream. Implementations are injected; the scanner core only
// depends on this signature.
type RefreshFunc func(ctx context.Context) (*Tables, error)

// Paths locates the on-disk copies of the reference tables.
type Paths struct {
	Stocks   string
	ETFs     string
	Sectors  string
	Holdings string
}

// Source loads reference tables, preferring a live refresh when the disk
// copies have aged out, and falling back to the disk copies when the
// refresh fails. Missing sector/holdings tables degrade to empty maps;
// missing stocks or ETFs with no refresh is fatal to the run.
type Source struct {
	Refresh RefreshFunc // optional
	Paths   Paths
	TTL     time.Duration
	Sink    func(*Tables) error // optional persistence of refreshed tables
}

// Load returns the current reference tables.
func (s *Source) Load(ctx context.Context) (*Tables, error) {
	if s.Refresh != nil && s.diskStale() {
		t, err := s.Refresh(ctx)
		if err == nil && t != nil && len(t.Stocks) > 0 {
			if s.Sink != nil {
				if serr := s.Sink(t); serr != nil {
					log.Warn().Err(serr).Msg("persisting refreshed reference tables failed")
				}
			}
			return s.fillDefaults(t), nil
		}
		log.Warn().Err(err).Msg("reference refresh failed, falling back to disk tables")
	}
	return s.loadDisk()
}

func (s *Source) diskStale() bool {
	info, err := os.Stat(s.Paths.Stocks)
	if err != nil {
		return true
	}
	return time.Since(info.ModTime()) > s.TTL
}

func (s *Source) loadDisk() (*Tables, error) {
	stocks, err := LoadStocks(s.Paths.Stocks)
	if err != nil {
		return nil, fmt.Errorf("reference symbols table unavailable: %w", err)
	}
	etfs, err := LoadETFs(s.Paths.ETFs)
	if err != nil {
		return nil, fmt.Errorf("reference ETF table unavailable: %w", err)
	}

	t := &Tables{Stocks: stocks, ETFs: etfs}

	if sectors, err := LoadSectors(s.Paths.Sectors); err == nil {
		t.Sectors = sectors
	} else {
		log.Warn().Err(err).Msg("sector map unavailable, rows will carry Unknown")
	}
	if holdings, err := LoadHoldings(s.Paths.Holdings); err == nil {
		t.Holdings = holdings
	} else {
		log.Warn().Err(err).Msg("ETF holdings table unavailable")
	}
	return s.fillDefaults(t), nil
}

func (s *Source) fillDefaults(t *Tables) *Tables {
	if t.Sectors == nil {
		t.Sectors = map[string]string{}
	}
	if t.Holdings == nil {
		t.Holdings = map[string][]string{}
	}
	if t.Industries == nil {
		t.Industries = make(map[string]string, len(t.Stocks))
		for _, st := range t.Stocks {
			if st.Industry != "" {
				t.Industries[st.Ticker] = st.Industry
			}
		}
	}
	return t
}
