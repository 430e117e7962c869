package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/stratrun/internal/data/vendor"
)

// Stock is one row of the symbols-with-market-cap table, already
// canonicalized.
type Stock struct {
	Ticker    string
	MarketCap float64
	Industry  string
}

// Tables holds the refreshed reference data the scheduler and enricher
// consume. Stocks are ordered by descending market cap.
type Tables struct {
	Stocks     []Stock
	ETFs       []string
	Sectors    map[string]string   // ticker -> sector
	Industries map[string]string   // ticker -> industry
	Holdings   map[string][]string // ticker -> core ETF memberships
}

// ParseMarketCap parses human-formatted market caps: "245.78M", "4.55T",
// "1,234,567", plain integers. Malformed strings error and the row is
// dropped by the caller.
func ParseMarketCap(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty market cap")
	}

	mult := 1.0
	switch last := s[len(s)-1]; last {
	case 'K', 'k':
		mult, s = 1e3, s[:len(s)-1]
	case 'M', 'm':
		mult, s = 1e6, s[:len(s)-1]
	case 'B', 'b':
		mult, s = 1e9, s[:len(s)-1]
	case 'T', 't':
		mult, s = 1e12, s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("market cap %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative market cap %q", s)
	}
	return v * mult, nil
}

// readCSV loads a comma-separated file into header-keyed rows. Column
// lookup is case-insensitive on trimmed header names.
func readCSV(path string) ([]map[string]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []map[string]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// One malformed row should not discard the table.
			continue
		}
		row := make(map[string]string, len(header))
		for i, v := range rec {
			if i < len(header) {
				row[header[i]] = strings.TrimSpace(v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadStocks reads the symbols table (Symbol, Market Cap, optional
// Industry), drops rows with malformed caps, and orders by descending cap.
func LoadStocks(path string) ([]Stock, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	var out []Stock
	dropped := 0
	for _, row := range rows {
		ticker := vendor.Normalize(row["symbol"])
		if ticker == "" {
			dropped++
			continue
		}
		capVal, err := ParseMarketCap(row["market cap"])
		if err != nil {
			dropped++
			continue
		}
		out = append(out, Stock{Ticker: ticker, MarketCap: capVal, Industry: row["industry"]})
	}
	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Str("path", path).Msg("dropped malformed symbol rows")
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MarketCap > out[j].MarketCap })
	return out, nil
}

// LoadETFs reads the ETF listing (Symbol).
func LoadETFs(path string) ([]string, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, row := range rows {
		if t := vendor.Normalize(row["symbol"]); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// LoadSectors reads the sector map (ticker, sector).
func LoadSectors(path string) (map[string]string, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		if t := vendor.Normalize(row["ticker"]); t != "" && row["sector"] != "" {
			out[t] = row["sector"]
		}
	}
	return out, nil
}

// LoadHoldings reads the core-ETF-holdings table (ticker, etfs,
// etf_count); etfs is pipe-delimited.
func LoadHoldings(path string) (map[string][]string, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(rows))
	for _, row := range rows {
		t := vendor.Normalize(row["ticker"])
		if t == "" || row["etfs"] == "" {
			continue
		}
		var etfs []string
		for _, e := range strings.Split(row["etfs"], "|") {
			if e = vendor.Normalize(e); e != "" {
				etfs = append(etfs, e)
			}
		}
		if len(etfs) > 0 {
			out[t] = etfs
		}
	}
	return out, nil
}
