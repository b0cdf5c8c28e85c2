// Package pipeline orchestrates the full analysis run: bounded research
// fan-out, findings aggregation, streamed recommendation generation, and
// report extraction.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	apperrors "portfolio-analyst/internal/errors"
	"portfolio-analyst/internal/models"
	"portfolio-analyst/internal/portfolio"
	"portfolio-analyst/internal/report"
)

// ResearchCoordinator runs the research stage over the whole portfolio.
type ResearchCoordinator interface {
	ResearchAll(ctx context.Context, holdings []models.Holding) ([]models.ResearchRecord, error)
}

// FindingsAggregator synthesizes research records into a findings narrative.
type FindingsAggregator interface {
	Aggregate(ctx context.Context, records []models.ResearchRecord) (string, error)
}

// RecommendationGenerator streams the recommendation narrative.
type RecommendationGenerator interface {
	Recommend(ctx context.Context, holdings []models.Holding, findings string) (string, error)
}

// Runner executes the analysis pipeline end to end.
type Runner struct {
	coordinator ResearchCoordinator
	aggregator  FindingsAggregator
	analyst     RecommendationGenerator
	logger      zerolog.Logger
}

// NewRunner creates a new pipeline runner.
func NewRunner(coordinator ResearchCoordinator, aggregator FindingsAggregator, analyst RecommendationGenerator, logger zerolog.Logger) *Runner {
	return &Runner{
		coordinator: coordinator,
		aggregator:  aggregator,
		analyst:     analyst,
		logger:      logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes research → aggregation → recommendation → extraction for the
// given holdings. Per-lookup provider errors degrade individual report
// fields; any stage failure is pipeline-fatal and yields no report. The
// returned PipelineError carries the stage and trigger for the failure
// notification.
func (r *Runner) Run(ctx context.Context, holdings []models.Holding, trigger string) (*models.StructuredReport, error) {
	if len(holdings) == 0 {
		return nil, apperrors.NewPipelineError(apperrors.StageResearch, trigger, apperrors.ErrEmptyPortfolio)
	}

	symbols := portfolio.Symbols(holdings)
	logger := r.logger.With().Str("trigger", trigger).Strs("symbols", symbols).Logger()
	logger.Info().Msg("Pipeline run started")
	start := time.Now()

	records, err := r.coordinator.ResearchAll(ctx, holdings)
	if err != nil {
		return nil, apperrors.NewPipelineError(apperrors.StageResearch, trigger, err)
	}
	logger.Info().Int("records", len(records)).Dur("elapsed", time.Since(start)).Msg("Research stage completed")

	findings, err := r.aggregator.Aggregate(ctx, records)
	if err != nil {
		return nil, apperrors.NewPipelineError(apperrors.StageAggregate, trigger, err)
	}
	logger.Info().Dur("elapsed", time.Since(start)).Msg("Aggregation stage completed")

	narrative, err := r.analyst.Recommend(ctx, holdings, findings)
	if err != nil {
		return nil, apperrors.NewPipelineError(apperrors.StageRecommend, trigger, err)
	}
	logger.Info().Dur("elapsed", time.Since(start)).Msg("Recommendation stage completed")

	rep := report.Extract(narrative, symbols)
	rep.Trigger = trigger
	rep.Elapsed = time.Since(start)
	rep.GeneratedAt = time.Now()

	logger.Info().Dur("elapsed", rep.Elapsed).Msg("Pipeline run completed")
	return rep, nil
}
