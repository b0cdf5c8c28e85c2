package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"portfolio-analyst/internal/logging"
	"portfolio-analyst/internal/models"
)

// finnhubNews is the Finnhub company-news response item.
type finnhubNews struct {
	Category string `json:"category"`
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// finnhubRecommendation is the Finnhub recommendation-trends response item.
type finnhubRecommendation struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

// CompanyNews fetches recent news for a symbol, bounded to the newest
// NewsLimit items within the lookback window. A failure yields a single
// item carrying only the error string.
func (c *Client) CompanyNews(ctx context.Context, symbol string) []models.NewsItem {
	start := time.Now()
	items, err := c.fetchCompanyNews(ctx, symbol)
	logging.LogProviderCall(c.logger, "finnhub_news", symbol, time.Since(start), err)
	if err != nil {
		return []models.NewsItem{{Error: err.Error()}}
	}
	return items
}

func (c *Client) fetchCompanyNews(ctx context.Context, symbol string) ([]models.NewsItem, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -c.cfg.NewsLookbackDays)

	resp, err := c.finnhub.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"from":   from.Format("2006-01-02"),
			"to":     to.Format("2006-01-02"),
			"token":  c.cfg.FinnhubAPIKey,
		}).
		Get("/company-news")
	if err != nil {
		return nil, fmt.Errorf("fetch news for %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("finnhub news API error %d: %s", resp.StatusCode(), resp.String())
	}

	var raw []finnhubNews
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("parse news response: %w", err)
	}

	if len(raw) > c.cfg.NewsLimit {
		raw = raw[:c.cfg.NewsLimit]
	}

	items := make([]models.NewsItem, 0, len(raw))
	for _, n := range raw {
		item := models.NewsItem{
			Headline: n.Headline,
			Summary:  truncate(n.Summary, 400),
			Source:   n.Source,
		}
		if n.DateTime > 0 {
			item.Date = time.Unix(n.DateTime, 0).Format("2006-01-02")
		}
		items = append(items, item)
	}
	return items, nil
}

// AnalystRatings fetches the latest-period analyst recommendation tally for
// a symbol. A failure yields a record carrying only the error string; an
// empty trend list yields a zero record.
func (c *Client) AnalystRatings(ctx context.Context, symbol string) models.AnalystRatings {
	start := time.Now()
	ratings, err := c.fetchAnalystRatings(ctx, symbol)
	logging.LogProviderCall(c.logger, "finnhub_ratings", symbol, time.Since(start), err)
	if err != nil {
		return models.AnalystRatings{Error: err.Error()}
	}
	return ratings
}

func (c *Client) fetchAnalystRatings(ctx context.Context, symbol string) (models.AnalystRatings, error) {
	resp, err := c.finnhub.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"token":  c.cfg.FinnhubAPIKey,
		}).
		Get("/stock/recommendation")
	if err != nil {
		return models.AnalystRatings{}, fmt.Errorf("fetch recommendations for %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return models.AnalystRatings{}, fmt.Errorf("finnhub recommendation API error %d: %s", resp.StatusCode(), resp.String())
	}

	var raw []finnhubRecommendation
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return models.AnalystRatings{}, fmt.Errorf("parse recommendation response: %w", err)
	}
	if len(raw) == 0 {
		return models.AnalystRatings{}, nil
	}

	// Finnhub returns trends newest first; only the latest period matters.
	latest := raw[0]
	return models.AnalystRatings{
		Period:     latest.Period,
		StrongBuy:  latest.StrongBuy,
		Buy:        latest.Buy,
		Hold:       latest.Hold,
		Sell:       latest.Sell,
		StrongSell: latest.StrongSell,
	}, nil
}
