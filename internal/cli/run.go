package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"portfolio-analyst/internal/models"
	"portfolio-analyst/internal/portfolio"
)

func newRunCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run [SYMBOLS...]",
		Short: "Run a portfolio analysis and print the report",
		Long: `Run the full research pipeline and print the recommendation report.

With no arguments the whole portfolio is analyzed. With symbol arguments
only those symbols are analyzed; symbols not held in the portfolio are
researched as watchlist entries with zero shares.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			holdings, err := portfolio.Load(app.Config.Pipeline.PortfolioPath)
			if err != nil {
				return err
			}
			holdings = portfolio.Resolve(holdings, args)
			if len(holdings) == 0 {
				return fmt.Errorf("portfolio %s contains no holdings", app.Config.Pipeline.PortfolioPath)
			}

			// Stream the narrative to the terminal as it arrives, except in
			// JSON mode where only the final report is printed.
			sink := func(chunk string) { output.Printf("%s", chunk) }
			if output.IsJSON() {
				sink = nil
			}

			runner, err := newRunner(app, sink)
			if err != nil {
				return err
			}

			if !output.IsJSON() {
				output.Info("Analyzing %d holdings: %s", len(holdings), strings.Join(portfolio.Symbols(holdings), ", "))
				output.Println()
			}

			rep, err := runner.Run(cmd.Context(), holdings, models.TriggerManual)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(reportJSON(rep))
			}

			output.Println()
			printReport(output, rep)
			return nil
		},
	}
}

func printReport(output *Output, rep *models.StructuredReport) {
	output.Bold("Recommendations")
	for _, sym := range rep.Symbols {
		sr := rep.PerSymbol[sym]
		output.Printf("  %-6s %-6s confidence: %s\n", sym, output.Verdict(sr.Verdict), sr.Confidence)
		if sr.Reasoning != "" {
			output.Printf("         reasoning: %s\n", sr.Reasoning)
		}
		if sr.KeyRisk != "" {
			output.Printf("         key risk:  %s\n", sr.KeyRisk)
		}
	}

	if rep.Overall != "" {
		output.Println()
		output.Bold("Overall Assessment")
		output.Printf("  %s\n", rep.Overall)
	}

	output.Println()
	output.Dim("trigger: %s | runtime: %.1fs", rep.Trigger, rep.Elapsed.Seconds())
}

// reportJSON shapes a report for JSON output.
func reportJSON(rep *models.StructuredReport) map[string]any {
	perSymbol := make(map[string]any, len(rep.PerSymbol))
	for sym, sr := range rep.PerSymbol {
		perSymbol[sym] = map[string]any{
			"verdict":    sr.Verdict,
			"confidence": sr.Confidence,
			"reasoning":  sr.Reasoning,
			"key_risk":   sr.KeyRisk,
		}
	}
	return map[string]any{
		"symbols":      rep.Symbols,
		"per_symbol":   perSymbol,
		"overall":      rep.Overall,
		"trigger":      rep.Trigger,
		"elapsed_sec":  rep.Elapsed.Seconds(),
		"generated_at": rep.GeneratedAt,
	}
}
