package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"portfolio-analyst/internal/feishu"
	"portfolio-analyst/internal/models"
	"portfolio-analyst/internal/pipeline"
	"portfolio-analyst/internal/portfolio"
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Feishu event webhook server",
		Long: `Start an HTTP server receiving Feishu event callbacks. Chat members can
trigger analyses by messaging the bot: "run" analyzes the whole portfolio,
"run SYM..." analyzes specific symbols.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := app.Config.Credentials.Feishu
			if creds.AppID == "" || creds.AppSecret == "" {
				return errors.New("feishu credentials required: set FEISHU_APP_ID and FEISHU_APP_SECRET")
			}

			runner, err := newRunner(app, nil)
			if err != nil {
				return err
			}

			bot := feishu.NewBot(feishu.BotConfig{
				AppID:     creds.AppID,
				AppSecret: creds.AppSecret,
			}, app.Logger)

			handler := newEventHandler(app, runner, bot)
			webhook := feishu.NewServer(creds.EncryptKey, handler, app.Logger)

			mux := http.NewServeMux()
			mux.Handle("/webhook/event", webhook)

			srv := &http.Server{
				Addr:         app.Config.Server.ListenAddr,
				Handler:      mux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info().Str("addr", srv.Addr).Msg("Webhook server listening")
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-stop:
			}

			app.Logger.Info().Msg("Shutting down webhook server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// newEventHandler builds the chat command handler. Each event runs on its
// own goroutine; the webhook has already responded by the time it executes.
func newEventHandler(app *App, runner *pipeline.Runner, bot *feishu.Bot) feishu.EventHandler {
	return func(event feishu.MessageEvent) {
		ctx := context.Background()
		logger := app.Logger.With().Str("chat_id", event.ChatID).Logger()

		cmd := feishu.ParseCommand(event.Text)
		switch cmd.Kind {
		case feishu.CommandHelp:
			if err := bot.ReplyText(ctx, event.MessageID, feishu.HelpText); err != nil {
				logger.Error().Err(err).Msg("Failed to send help reply")
			}

		case feishu.CommandRun:
			handleRunCommand(ctx, app, runner, bot, event, cmd.Symbols)

		default:
			if err := bot.ReplyText(ctx, event.MessageID, "Unrecognized command.\n\n"+feishu.HelpText); err != nil {
				logger.Error().Err(err).Msg("Failed to send usage reply")
			}
		}
	}
}

func handleRunCommand(ctx context.Context, app *App, runner *pipeline.Runner, bot *feishu.Bot, event feishu.MessageEvent, symbols []string) {
	logger := app.Logger.With().Str("chat_id", event.ChatID).Logger()

	holdings, err := portfolio.Load(app.Config.Pipeline.PortfolioPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load portfolio")
		_ = bot.ReplyCard(ctx, event.MessageID, feishu.ErrorCard(err))
		return
	}
	holdings = portfolio.Resolve(holdings, symbols)

	if err := bot.ReplyCard(ctx, event.MessageID, feishu.AckCard(portfolio.Symbols(holdings), models.TriggerManual)); err != nil {
		logger.Error().Err(err).Msg("Failed to send ack card")
	}

	rep, err := runner.Run(ctx, holdings, models.TriggerManual)
	if err != nil {
		logger.Error().Err(err).Msg("Requested analysis failed")
		_ = bot.ReplyCard(ctx, event.MessageID, feishu.ErrorCard(err))
		return
	}

	if err := bot.ReplyCard(ctx, event.MessageID, feishu.ReportCard(rep)); err != nil {
		logger.Error().Err(err).Msg("Failed to send report card")
	}
}
