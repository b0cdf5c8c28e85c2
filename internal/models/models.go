// Package models provides domain models for the portfolio analysis pipeline.
package models

import (
	"time"
)

// Holding represents a single portfolio position. It is immutable input,
// loaded from the portfolio file or synthesized for ad-hoc symbols.
type Holding struct {
	Symbol  string  `json:"ticker"`
	Shares  float64 `json:"shares"`
	AvgCost float64 `json:"avg_cost"`
}

// NewsItem represents one recent news article for a symbol. A failed news
// lookup is recorded as a single item carrying only Error.
type NewsItem struct {
	Headline string `json:"headline,omitempty"`
	Summary  string `json:"summary,omitempty"`
	Source   string `json:"source,omitempty"`
	Date     string `json:"datetime,omitempty"`
	Error    string `json:"error,omitempty"`
}

// AnalystRatings holds the latest-period analyst recommendation tally.
type AnalystRatings struct {
	Period     string `json:"period,omitempty"`
	StrongBuy  int    `json:"strong_buy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strong_sell"`
	Error      string `json:"error,omitempty"`
}

// PriceContext holds the current price and valuation snapshot for a symbol.
// Pointer fields are nil when the upstream source has no value.
type PriceContext struct {
	CurrentPrice     *float64 `json:"current_price"`
	PriceChange1MPct *float64 `json:"price_change_1mo_pct"`
	FiftyTwoWeekHigh *float64 `json:"52_week_high"`
	FiftyTwoWeekLow  *float64 `json:"52_week_low"`
	PERatio          *float64 `json:"pe_ratio"`
	MarketCapB       *float64 `json:"market_cap_b"`
	Sector           string   `json:"sector,omitempty"`
	Industry         string   `json:"industry,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// ResearchRecord is the per-symbol output of the research stage. It is
// created once per pipeline run and never mutated afterwards.
type ResearchRecord struct {
	Symbol           string         `json:"ticker"`
	Shares           float64        `json:"shares"`
	AvgCost          float64        `json:"avg_cost"`
	UnrealizedPnLPct *float64       `json:"unrealized_pnl_pct"`
	PriceContext     PriceContext   `json:"price_context"`
	RecentNews       []NewsItem     `json:"recent_news"`
	AnalystRatings   AnalystRatings `json:"analyst_recommendations"`
}

// Verdict is a buy/hold/sell recommendation extracted from the analyst
// narrative. VerdictNA means extraction found no whole-word match.
type Verdict string

const (
	VerdictBuy  Verdict = "BUY"
	VerdictHold Verdict = "HOLD"
	VerdictSell Verdict = "SELL"
	VerdictNA   Verdict = "N/A"
)

// Confidence is the analyst's stated confidence in a verdict.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
	ConfidenceNA     Confidence = "N/A"
)

// SymbolReport holds the extracted fields for one symbol. Reasoning and
// KeyRisk may be empty when the narrative has no matching label.
type SymbolReport struct {
	Verdict    Verdict
	Confidence Confidence
	Reasoning  string
	KeyRisk    string
}

// StructuredReport is the final structured output of a pipeline run.
// PerSymbol always contains an entry for every requested symbol.
type StructuredReport struct {
	Symbols     []string
	PerSymbol   map[string]SymbolReport
	Overall     string
	Trigger     string
	Elapsed     time.Duration
	GeneratedAt time.Time
}

// Trigger labels identify which entry point started a pipeline run.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)
