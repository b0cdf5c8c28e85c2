package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"time"

	"portfolio-analyst/internal/logging"
	"portfolio-analyst/internal/models"
)

// quoteChart is the Yahoo Finance chart API response.
type quoteChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				FiftyTwoWeekHigh   *float64 `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow    *float64 `json:"fiftyTwoWeekLow"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// quoteSummary is the Yahoo Finance quoteSummary API response, limited to
// the modules the price context needs.
type quoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				TrailingPE struct {
					Raw *float64 `json:"raw"`
				} `json:"trailingPE"`
				MarketCap struct {
					Raw *float64 `json:"raw"`
				} `json:"marketCap"`
			} `json:"summaryDetail"`
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// PriceContext fetches the current price and valuation snapshot for a
// symbol. A failure yields a record carrying only the error string.
func (c *Client) PriceContext(ctx context.Context, symbol string) models.PriceContext {
	start := time.Now()
	pc, err := c.fetchPriceContext(ctx, symbol)
	logging.LogProviderCall(c.logger, "quote", symbol, time.Since(start), err)
	if err != nil {
		return models.PriceContext{Error: err.Error()}
	}
	return pc
}

func (c *Client) fetchPriceContext(ctx context.Context, symbol string) (models.PriceContext, error) {
	var pc models.PriceContext

	chart, err := c.fetchChart(ctx, symbol)
	if err != nil {
		return pc, err
	}

	closes := chartCloses(chart)
	if current := lastClose(closes); current != nil {
		rounded := round2(*current)
		pc.CurrentPrice = &rounded

		if monthAgo := firstClose(closes); monthAgo != nil && *monthAgo != 0 {
			change := round2((*current - *monthAgo) / *monthAgo * 100)
			pc.PriceChange1MPct = &change
		}
	}

	meta := chart.Chart.Result[0].Meta
	pc.FiftyTwoWeekHigh = meta.FiftyTwoWeekHigh
	pc.FiftyTwoWeekLow = meta.FiftyTwoWeekLow

	summary, err := c.fetchSummary(ctx, symbol)
	if err != nil {
		return pc, err
	}
	if len(summary.QuoteSummary.Result) > 0 {
		r := summary.QuoteSummary.Result[0]
		pc.PERatio = r.SummaryDetail.TrailingPE.Raw
		if mcap := r.SummaryDetail.MarketCap.Raw; mcap != nil {
			b := round1(*mcap / 1e9)
			pc.MarketCapB = &b
		}
		pc.Sector = r.AssetProfile.Sector
		pc.Industry = r.AssetProfile.Industry
	}

	return pc, nil
}

func (c *Client) fetchChart(ctx context.Context, symbol string) (*quoteChart, error) {
	resp, err := c.quote.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"interval": "1d",
			"range":    "1mo",
		}).
		Get("/v8/finance/chart/" + url.PathEscape(symbol))
	if err != nil {
		return nil, fmt.Errorf("fetch chart for %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("quote chart API error %d: %s", resp.StatusCode(), resp.String())
	}

	var chart quoteChart
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return nil, fmt.Errorf("parse chart response: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("quote chart API: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("quote chart: no data for %s", symbol)
	}
	return &chart, nil
}

func (c *Client) fetchSummary(ctx context.Context, symbol string) (*quoteSummary, error) {
	resp, err := c.quote.R().
		SetContext(ctx).
		SetQueryParam("modules", "summaryDetail,assetProfile").
		Get("/v10/finance/quoteSummary/" + url.PathEscape(symbol))
	if err != nil {
		return nil, fmt.Errorf("fetch summary for %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("quote summary API error %d: %s", resp.StatusCode(), resp.String())
	}

	var summary quoteSummary
	if err := json.Unmarshal(resp.Body(), &summary); err != nil {
		return nil, fmt.Errorf("parse summary response: %w", err)
	}
	if summary.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("quote summary API: %s", summary.QuoteSummary.Error.Description)
	}
	return &summary, nil
}

func chartCloses(chart *quoteChart) []*float64 {
	quotes := chart.Chart.Result[0].Indicators.Quote
	if len(quotes) == 0 {
		return nil
	}
	return quotes[0].Close
}

func lastClose(closes []*float64) *float64 {
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] != nil {
			return closes[i]
		}
	}
	return nil
}

func firstClose(closes []*float64) *float64 {
	for _, c := range closes {
		if c != nil {
			return c
		}
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
