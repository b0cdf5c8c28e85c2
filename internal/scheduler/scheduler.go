// Package scheduler runs the analysis pipeline on a cron schedule and
// posts the results to a Feishu chat.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"portfolio-analyst/internal/feishu"
	"portfolio-analyst/internal/models"
	"portfolio-analyst/internal/portfolio"
)

// PipelineRunner executes a full analysis run.
type PipelineRunner interface {
	Run(ctx context.Context, holdings []models.Holding, trigger string) (*models.StructuredReport, error)
}

// CardSender posts interactive cards to a chat.
type CardSender interface {
	SendCard(ctx context.Context, chatID string, card *feishu.Card) error
}

// Scheduler triggers scheduled analysis runs.
type Scheduler struct {
	cron          *cron.Cron
	runner        PipelineRunner
	sender        CardSender
	portfolioPath string
	chatID        string
	logger        zerolog.Logger
}

// Config holds the cron schedule settings.
type Config struct {
	CronSpec      string
	Timezone      string
	ChatID        string
	PortfolioPath string
}

// New creates a Scheduler in the configured timezone and registers the
// analysis job.
func New(cfg Config, runner PipelineRunner, sender CardSender, logger zerolog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		cron:          cron.New(cron.WithLocation(loc)),
		runner:        runner,
		sender:        sender,
		portfolioPath: cfg.PortfolioPath,
		chatID:        cfg.ChatID,
		logger:        logger.With().Str("component", "scheduler").Logger(),
	}

	if _, err := s.cron.AddFunc(cfg.CronSpec, s.analysisJob); err != nil {
		return nil, fmt.Errorf("registering analysis job %q: %w", cfg.CronSpec, err)
	}
	return s, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("Scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// RunNow executes the analysis job immediately, outside the schedule.
func (s *Scheduler) RunNow() {
	s.analysisJob()
}

func (s *Scheduler) analysisJob() {
	ctx := context.Background()
	s.logger.Info().Msg("Scheduled analysis starting")

	holdings, err := portfolio.Load(s.portfolioPath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load portfolio")
		s.trySend(ctx, feishu.ErrorCard(err))
		return
	}

	s.trySend(ctx, feishu.AckCard(portfolio.Symbols(holdings), models.TriggerScheduled))

	rep, err := s.runner.Run(ctx, holdings, models.TriggerScheduled)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled analysis failed")
		s.trySend(ctx, feishu.ErrorCard(err))
		return
	}

	s.trySend(ctx, feishu.ReportCard(rep))
	s.logger.Info().Dur("elapsed", rep.Elapsed).Msg("Scheduled analysis completed")
}

func (s *Scheduler) trySend(ctx context.Context, card *feishu.Card) {
	if err := s.sender.SendCard(ctx, s.chatID, card); err != nil {
		s.logger.Error().Err(err).Msg("Failed to send card")
	}
}
