package snapshot

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	atomicio "github.com/sawpanic/stratrun/internal/io"
)

// ResultRow is one emitted setup in the published results table. The
// column set and order are a fixed contract with the dashboard.
type ResultRow struct {
	ScanTime       string  `json:"scan_time"`
	Ticker         string  `json:"ticker"`
	ChartURL       string  `json:"chart_url"`
	CurrentPrice   float64 `json:"current_price"`
	TF             string  `json:"tf"`
	Pattern        string  `json:"pattern"`
	Setup          string  `json:"setup"`
	Dir            string  `json:"dir"`
	Entry          float64 `json:"entry"`
	Stop           float64 `json:"stop"`
	Score          int     `json:"score"`
	Aligned        string  `json:"aligned"`
	LastStrat      string  `json:"last_strat"`
	LastCandleType string  `json:"last_candle_type"`
	Actionable     string  `json:"actionable"`
	Note           string  `json:"note"`
	Sector         string  `json:"sector"`
	Industry       string  `json:"industry"`
	ETFs           string  `json:"etfs"`
	ETFsPretty     string  `json:"etfs_pretty"`
	CtxY           string  `json:"ctx_Y"`
	CtxQ           string  `json:"ctx_Q"`
	CtxM           string  `json:"ctx_M"`
	CtxW           string  `json:"ctx_W"`
	CtxD           string  `json:"ctx_D"`
}

// ContextRow is the per-symbol higher-timeframe posture used for sector
// heatmaps: closed and live classifications side by side.
type ContextRow struct {
	ScanTime     string  `json:"scan_time"`
	Ticker       string  `json:"ticker"`
	CurrentPrice float64 `json:"current_price"`
	CtxYClosed   string  `json:"ctx_Y_closed"`
	CtxQClosed   string  `json:"ctx_Q_closed"`
	CtxMClosed   string  `json:"ctx_M_closed"`
	CtxWClosed   string  `json:"ctx_W_closed"`
	CtxDClosed   string  `json:"ctx_D_closed"`
	CtxYLive     string  `json:"ctx_Y_live"`
	CtxQLive     string  `json:"ctx_Q_live"`
	CtxMLive     string  `json:"ctx_M_live"`
	CtxWLive     string  `json:"ctx_W_live"`
	CtxDLive     string  `json:"ctx_D_live"`
	Score        int     `json:"score"`
	Sector       string  `json:"sector"`
	Industry     string  `json:"industry"`
}

var resultsHeader = []string{
	"scan_time", "ticker", "chart_url", "current_price", "tf", "pattern",
	"setup", "dir", "entry", "stop", "score", "aligned", "last_strat",
	"last_candle_type", "actionable", "note", "sector", "industry", "etfs",
	"etfs_pretty", "ctx_Y", "ctx_Q", "ctx_M", "ctx_W", "ctx_D",
}

var contextHeader = []string{
	"scan_time", "ticker", "current_price",
	"ctx_Y_closed", "ctx_Q_closed", "ctx_M_closed", "ctx_W_closed", "ctx_D_closed",
	"ctx_Y_live", "ctx_Q_live", "ctx_M_live", "ctx_W_live", "ctx_D_live",
	"score", "sector", "industry",
}

func (r ResultRow) record() []string {
	return []string{
		r.ScanTime, r.Ticker, r.ChartURL, money(r.CurrentPrice), r.TF, r.Pattern,
		r.Setup, r.Dir, money(r.Entry), money(r.Stop), strconv.Itoa(r.Score),
		r.Aligned, r.LastStrat, r.LastCandleType, r.Actionable, r.Note,
		r.Sector, r.Industry, r.ETFs, r.ETFsPretty,
		r.CtxY, r.CtxQ, r.CtxM, r.CtxW, r.CtxD,
	}
}

func (r ContextRow) record() []string {
	return []string{
		r.ScanTime, r.Ticker, money(r.CurrentPrice),
		r.CtxYClosed, r.CtxQClosed, r.CtxMClosed, r.CtxWClosed, r.CtxDClosed,
		r.CtxYLive, r.CtxQLive, r.CtxMLive, r.CtxWLive, r.CtxDLive,
		strconv.Itoa(r.Score), r.Sector, r.Industry,
	}
}

// Entry, stop and price are rounded to two decimals at this boundary
// only; internal computation keeps full precision.
func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Writer publishes the consolidated artifacts. All writes are temp file +
// rename: a concurrent dashboard reader sees the previous snapshot or the
// new one, never a torn file. A write failure leaves the prior snapshot
// intact and is fatal to the run.
type Writer struct {
	ResultsCSVPath  string
	ResultsJSONPath string
	ContextCSVPath  string
}

// Write publishes both artifact streams.
func (w *Writer) Write(rows []ResultRow, ctxRows []ContextRow) error {
	if err := atomicio.WriteFileAtomic(w.ResultsCSVPath, marshalCSV(resultsHeader, len(rows), func(i int) []string { return rows[i].record() })); err != nil {
		return fmt.Errorf("write results csv: %w", err)
	}

	lines := make([][]byte, 0, len(rows))
	for _, r := range rows {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal result row: %w", err)
		}
		lines = append(lines, b)
	}
	if err := atomicio.WriteLinesAtomic(w.ResultsJSONPath, lines); err != nil {
		return fmt.Errorf("write results json: %w", err)
	}

	if err := atomicio.WriteFileAtomic(w.ContextCSVPath, marshalCSV(contextHeader, len(ctxRows), func(i int) []string { return ctxRows[i].record() })); err != nil {
		return fmt.Errorf("write context csv: %w", err)
	}

	log.Info().
		Int("rows", len(rows)).
		Int("context_rows", len(ctxRows)).
		Str("results", w.ResultsCSVPath).
		Msg("snapshot published")
	return nil
}
