package research

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"portfolio-analyst/internal/models"
)

// DefaultMaxConcurrent caps simultaneous research tasks. External providers
// share rate limits across symbols, so admission is gated globally.
const DefaultMaxConcurrent = 5

// Coordinator runs the researcher over every holding in a portfolio under a
// bounded-concurrency policy.
type Coordinator struct {
	researcher *Researcher
	limit      int
	logger     zerolog.Logger
}

// NewCoordinator creates a new fan-out coordinator. A non-positive limit
// falls back to DefaultMaxConcurrent.
func NewCoordinator(researcher *Researcher, limit int, logger zerolog.Logger) *Coordinator {
	if limit <= 0 {
		limit = DefaultMaxConcurrent
	}
	return &Coordinator{
		researcher: researcher,
		limit:      limit,
		logger:     logger.With().Str("component", "fanout").Logger(),
	}
}

// ResearchAll researches every holding and returns one record per holding
// in input order, regardless of completion order. Per-lookup provider
// failures are carried inside the records; only a genuine fault (a panic
// escaping a research task) fails the whole call.
func (c *Coordinator) ResearchAll(ctx context.Context, holdings []models.Holding) ([]models.ResearchRecord, error) {
	c.logger.Info().Int("holdings", len(holdings)).Int("limit", c.limit).Msg("Starting research fan-out")

	records := make([]models.ResearchRecord, len(holdings))

	p := pool.New().WithMaxGoroutines(c.limit).WithErrors()
	for i, holding := range holdings {
		i, holding := i, holding
		p.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("research for %s panicked: %v", holding.Symbol, r)
				}
			}()
			// Indexed slot write keeps results in input order.
			records[i] = c.researcher.Research(ctx, holding)
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("research fan-out: %w", err)
	}

	return records, nil
}
