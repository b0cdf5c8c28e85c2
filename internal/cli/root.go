// Package cli provides the command-line interface for the portfolio analyst.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"portfolio-analyst/internal/agents"
	"portfolio-analyst/internal/config"
	"portfolio-analyst/internal/logging"
	"portfolio-analyst/internal/pipeline"
	"portfolio-analyst/internal/providers"
	"portfolio-analyst/internal/research"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "analyst",
		Short: "AI-powered portfolio research and recommendation bot",
		Long: `Portfolio Analyst researches every holding in your portfolio concurrently,
aggregates the findings with a reasoning model, and produces per-symbol
buy/hold/sell recommendations.

Reports can be printed to the terminal, posted to a Feishu chat on a
schedule, or requested on demand through the Feishu event webhook.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/portfolio-analyst)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newScheduleCmd(app))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))

	return rootCmd
}

// newLLMClient builds the reasoning-model client from credentials.
func newLLMClient(app *App) (agents.LLMClient, error) {
	creds := app.Config.Credentials.OpenAI
	if creds.APIKey == "" {
		return nil, fmt.Errorf("no reasoning model configured: set AOAI_API_KEY or credentials.toml [openai] api_key")
	}
	model := creds.Model
	if model == "" {
		model = "gpt-4o"
	}
	return agents.NewOpenAIClient(creds.APIKey, creds.BaseURL, model), nil
}

// newRunner wires the full pipeline: provider gateway, bounded research
// fan-out, aggregator, and streaming analyst.
func newRunner(app *App, sink agents.ChunkSink) (*pipeline.Runner, error) {
	llm, err := newLLMClient(app)
	if err != nil {
		return nil, err
	}

	gateway := providers.NewClient(providers.Config{
		FinnhubAPIKey:    app.Config.Credentials.Finnhub.APIKey,
		Timeout:          app.Config.Pipeline.ProviderTimeout,
		NewsLookbackDays: app.Config.Pipeline.NewsLookbackDays,
		NewsLimit:        app.Config.Pipeline.NewsLimit,
	}, app.Logger)

	researcher := research.NewResearcher(gateway, app.Logger)
	coordinator := research.NewCoordinator(researcher, app.Config.Pipeline.MaxConcurrent, app.Logger)
	aggregator := agents.NewAggregator(llm, app.Logger)
	analyst := agents.NewAnalyst(llm, sink, app.Logger)

	return pipeline.NewRunner(coordinator, aggregator, analyst, app.Logger), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				_ = output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("Portfolio Analyst v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				_ = output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write default configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			configDir, _ := cmd.Flags().GetString("config")
			if configDir == "" {
				configDir = config.DefaultConfigDir()
			}
			if err := config.Init(configDir); err != nil {
				return err
			}
			output.Success("Configuration initialized in %s", configDir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Pipeline")
	output.Printf("  Portfolio:       %s\n", cfg.Pipeline.PortfolioPath)
	output.Printf("  Max Concurrent:  %d\n", cfg.Pipeline.MaxConcurrent)
	output.Printf("  News Lookback:   %d days\n", cfg.Pipeline.NewsLookbackDays)
	output.Printf("  News Limit:      %d\n", cfg.Pipeline.NewsLimit)
	output.Printf("  Provider Timeout: %s\n", cfg.Pipeline.ProviderTimeout)
	output.Println()

	output.Bold("Schedule")
	output.Printf("  Cron:            %s\n", cfg.Schedule.Cron)
	output.Printf("  Timezone:        %s\n", cfg.Schedule.Timezone)
	output.Printf("  Chat ID:         %s\n", cfg.Schedule.ChatID)
	output.Println()

	output.Bold("Server")
	output.Printf("  Listen:          %s\n", cfg.Server.ListenAddr)
}
