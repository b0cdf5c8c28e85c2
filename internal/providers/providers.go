// Package providers fetches raw per-symbol market data from external
// sources. Every lookup is independently fallible: failures are converted
// into inline error markers on the returned record, never propagated, so
// one provider outage degrades a single field instead of the whole run.
package providers

import (
	"context"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"portfolio-analyst/internal/models"
)

// Gateway defines the three per-symbol lookups consumed by the research
// stage. Implementations must not return errors; failures surface as Error
// fields on the returned records.
type Gateway interface {
	CompanyNews(ctx context.Context, symbol string) []models.NewsItem
	AnalystRatings(ctx context.Context, symbol string) models.AnalystRatings
	PriceContext(ctx context.Context, symbol string) models.PriceContext
}

const (
	defaultFinnhubBaseURL = "https://finnhub.io/api/v1"
	defaultQuoteBaseURL   = "https://query1.finance.yahoo.com"
)

// Config holds provider gateway configuration.
type Config struct {
	FinnhubAPIKey    string
	FinnhubBaseURL   string // override for tests; defaults to the public API
	QuoteBaseURL     string // override for tests; defaults to the public API
	Timeout          time.Duration
	NewsLookbackDays int
	NewsLimit        int
}

// Client implements Gateway against the Finnhub and Yahoo Finance public
// APIs.
type Client struct {
	finnhub *resty.Client
	quote   *resty.Client
	cfg     Config
	logger  zerolog.Logger
}

// NewClient creates a new provider gateway client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.FinnhubBaseURL == "" {
		cfg.FinnhubBaseURL = defaultFinnhubBaseURL
	}
	if cfg.QuoteBaseURL == "" {
		cfg.QuoteBaseURL = defaultQuoteBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.NewsLookbackDays <= 0 {
		cfg.NewsLookbackDays = 7
	}
	if cfg.NewsLimit <= 0 {
		cfg.NewsLimit = 6
	}

	finnhub := resty.New().
		SetBaseURL(cfg.FinnhubBaseURL).
		SetTimeout(cfg.Timeout)

	quote := resty.New().
		SetBaseURL(cfg.QuoteBaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "Mozilla/5.0")

	return &Client{
		finnhub: finnhub,
		quote:   quote,
		cfg:     cfg,
		logger:  logger.With().Str("component", "providers").Logger(),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
