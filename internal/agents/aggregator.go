package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	apperrors "portfolio-analyst/internal/errors"
	"portfolio-analyst/internal/models"
)

const aggregatorSystemPrompt = `You are a financial research aggregator. Analyze raw per-stock research data and produce a structured summary covering:
1. Macro themes and market trends affecting the portfolio
2. Cross-stock correlations and sector concentration risks
3. Most impactful recent news items
4. Overall analyst sentiment across all holdings
Be concise, specific, and grounded in the data provided.`

// Aggregator synthesizes the full set of research records into a single
// findings narrative via one blocking reasoning-model round trip.
type Aggregator struct {
	llm    LLMClient
	logger zerolog.Logger
}

// NewAggregator creates a new findings aggregator.
func NewAggregator(llm LLMClient, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		llm:    llm,
		logger: logger.With().Str("component", "aggregator").Logger(),
	}
}

// Aggregate sends the serialized research records to the reasoning model
// and returns the synthesized findings narrative. Any model or transport
// failure is pipeline-fatal; the narrative is always non-empty on success.
func (a *Aggregator) Aggregate(ctx context.Context, records []models.ResearchRecord) (string, error) {
	researchJSON, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing research records: %w", err)
	}

	userPrompt := fmt.Sprintf(
		"Here is the research data for each stock in the portfolio:\n\n%s\n\nProduce a structured aggregated findings report.",
		researchJSON,
	)

	start := time.Now()
	findings, err := a.llm.CompleteWithSystem(ctx, aggregatorSystemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("aggregating findings: %w", err)
	}
	if findings == "" {
		return "", apperrors.ErrEmptyResponse
	}

	a.logger.Info().
		Int("records", len(records)).
		Int("findings_chars", len(findings)).
		Dur("duration", time.Since(start)).
		Msg("Findings aggregated")

	return findings, nil
}
