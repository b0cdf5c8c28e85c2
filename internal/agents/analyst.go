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

const analystSystemPrompt = `You are a senior portfolio analyst. Make direct, specific recommendations grounded strictly in the provided research data. Do not speculate beyond what the data supports.`

const analystPromptTemplate = `Based on the research below, provide clear investment recommendations.

PORTFOLIO:
%s

AGGREGATED RESEARCH FINDINGS:
%s

For each stock provide:
- **Recommendation**: BUY / HOLD / SELL
- **Confidence**: High / Medium / Low
- **Reasoning**: 2-3 specific points from the research
- **Key Risk**: The main risk to this call

End with an OVERALL PORTFOLIO ASSESSMENT covering:
- Sector concentration
- Portfolio-level risk
- Top 1-2 actionable priorities
`

// ChunkSink receives recommendation narrative chunks as they arrive, for
// live progress display. It must not block for long; it runs on the stream
// consumer goroutine.
type ChunkSink func(chunk string)

// Analyst generates the recommendation narrative via one streamed
// reasoning-model request.
type Analyst struct {
	llm    LLMClient
	sink   ChunkSink
	logger zerolog.Logger
}

// NewAnalyst creates a new recommendation generator. sink may be nil when
// no live progress output is wanted.
func NewAnalyst(llm LLMClient, sink ChunkSink, logger zerolog.Logger) *Analyst {
	return &Analyst{
		llm:    llm,
		sink:   sink,
		logger: logger.With().Str("component", "analyst").Logger(),
	}
}

// Recommend streams the recommendation narrative for the portfolio. Each
// chunk is forwarded to the sink and appended to the accumulator in arrival
// order; the full narrative is returned once the stream completes. Failure
// or cancellation discards the partial accumulation and is pipeline-fatal.
func (a *Analyst) Recommend(ctx context.Context, holdings []models.Holding, findings string) (string, error) {
	portfolioJSON, err := json.MarshalIndent(holdings, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing portfolio: %w", err)
	}

	userPrompt := fmt.Sprintf(analystPromptTemplate, portfolioJSON, findings)

	start := time.Now()
	narrative, err := a.llm.StreamWithSystem(ctx, analystSystemPrompt, userPrompt, a.sink)
	if err != nil {
		return "", fmt.Errorf("generating recommendations: %w", err)
	}
	if narrative == "" {
		return "", apperrors.ErrEmptyResponse
	}

	a.logger.Info().
		Int("holdings", len(holdings)).
		Int("narrative_chars", len(narrative)).
		Dur("duration", time.Since(start)).
		Msg("Recommendations generated")

	return narrative, nil
}
