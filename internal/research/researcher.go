// Package research builds per-symbol research records and coordinates the
// bounded fan-out over a portfolio.
package research

import (
	"context"
	"math"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"portfolio-analyst/internal/models"
	"portfolio-analyst/internal/providers"
)

// Researcher assembles a ResearchRecord for a single holding.
type Researcher struct {
	gateway providers.Gateway
	logger  zerolog.Logger
}

// NewResearcher creates a new Researcher.
func NewResearcher(gateway providers.Gateway, logger zerolog.Logger) *Researcher {
	return &Researcher{
		gateway: gateway,
		logger:  logger.With().Str("component", "researcher").Logger(),
	}
}

// Research fetches news, analyst ratings, and price context for one holding
// concurrently and assembles the research record. It never fails: provider
// errors surface as inline error markers on the relevant sub-record.
func (r *Researcher) Research(ctx context.Context, holding models.Holding) models.ResearchRecord {
	r.logger.Debug().Str("symbol", holding.Symbol).Msg("Researching symbol")

	var (
		news    []models.NewsItem
		ratings models.AnalystRatings
		pc      models.PriceContext
	)

	// All three lookups run concurrently; a slow one does not block the
	// others but does block completion of this record.
	var wg conc.WaitGroup
	wg.Go(func() {
		news = r.gateway.CompanyNews(ctx, holding.Symbol)
	})
	wg.Go(func() {
		ratings = r.gateway.AnalystRatings(ctx, holding.Symbol)
	})
	wg.Go(func() {
		pc = r.gateway.PriceContext(ctx, holding.Symbol)
	})
	wg.Wait()

	return models.ResearchRecord{
		Symbol:           holding.Symbol,
		Shares:           holding.Shares,
		AvgCost:          holding.AvgCost,
		UnrealizedPnLPct: UnrealizedPnLPct(pc.CurrentPrice, holding.AvgCost),
		PriceContext:     pc,
		RecentNews:       news,
		AnalystRatings:   ratings,
	}
}

// UnrealizedPnLPct returns the signed percentage difference between the
// current price and the average cost, rounded to 2 decimals. It is nil when
// the price is absent or either operand is zero.
func UnrealizedPnLPct(currentPrice *float64, avgCost float64) *float64 {
	if currentPrice == nil || *currentPrice == 0 || avgCost == 0 {
		return nil
	}
	pct := math.Round((*currentPrice-avgCost)/avgCost*100*100) / 100
	return &pct
}
