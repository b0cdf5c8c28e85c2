package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"portfolio-analyst/internal/feishu"
	"portfolio-analyst/internal/scheduler"
)

func newScheduleCmd(app *App) *cobra.Command {
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run scheduled analyses and post reports to Feishu",
		Long: `Start the cron scheduler. On each tick the full portfolio is analyzed and
the report card is posted to the configured Feishu chat.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := app.Config.Credentials.Feishu
			if creds.AppID == "" || creds.AppSecret == "" {
				return errors.New("feishu credentials required: set FEISHU_APP_ID and FEISHU_APP_SECRET")
			}
			if app.Config.Schedule.ChatID == "" {
				return errors.New("no target chat configured: set FEISHU_CHAT_ID or config.toml [schedule] chat_id")
			}

			runner, err := newRunner(app, nil)
			if err != nil {
				return err
			}

			bot := feishu.NewBot(feishu.BotConfig{
				AppID:     creds.AppID,
				AppSecret: creds.AppSecret,
			}, app.Logger)

			sched, err := scheduler.New(scheduler.Config{
				CronSpec:      app.Config.Schedule.Cron,
				Timezone:      app.Config.Schedule.Timezone,
				ChatID:        app.Config.Schedule.ChatID,
				PortfolioPath: app.Config.Pipeline.PortfolioPath,
			}, runner, bot, app.Logger)
			if err != nil {
				return err
			}

			sched.Start()
			defer sched.Stop()

			app.Logger.Info().
				Str("cron", app.Config.Schedule.Cron).
				Str("timezone", app.Config.Schedule.Timezone).
				Str("chat_id", app.Config.Schedule.ChatID).
				Msg("Schedule active")

			if runOnStart {
				go sched.RunNow()
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop
			return nil
		},
	}

	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "run one analysis immediately on startup")
	return cmd
}
