package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"breakout-monitor/internal/engine"
	apperrors "breakout-monitor/internal/errors"
	"breakout-monitor/internal/historical"
	"breakout-monitor/internal/models"
	"breakout-monitor/pkg/utils"
)

// newHistoricalCmd analyzes a past trading day from its full candle
// record.
func newHistoricalCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "historical [date]",
		Short: "Analyze a past trading day (YYYY-MM-DD)",
		Long: `Replays the breakout lifecycle for every symbol on a past date from
the day's full candle record. Results are cached per date; use
--refresh to recompute.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return apperrors.ErrDatabaseError
			}
			output := NewOutput(cmd)

			analyzer := historical.NewAnalyzer(app.Candles, app.Store, engine.Params{
				EntryPct:    app.Config.Engine.EntryPct,
				StoplossPct: app.Config.Engine.StoplossPct,
				RiskReward:  app.Config.Engine.RiskReward,
			}, app.Logger)

			list, _ := cmd.Flags().GetBool("list")
			if list {
				return runHistoricalList(cmd, output, analyzer)
			}

			clearFlag, _ := cmd.Flags().GetBool("clear")
			if clearFlag {
				return runHistoricalClear(cmd, output, analyzer, args)
			}

			if len(args) == 0 {
				return fmt.Errorf("date argument required (YYYY-MM-DD)")
			}
			date := args[0]
			if _, err := time.Parse(utils.DateLayout, date); err != nil {
				return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
			}

			refresh, _ := cmd.Flags().GetBool("refresh")

			snapshot, cached, err := analyzer.Run(cmd.Context(), date, refresh)
			if apperrors.Is(err, apperrors.ErrNoDataForDate) {
				output.Warning("No candle data available for %s.", date)
				return nil
			}
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(snapshot)
			}

			if cached {
				output.Dim("Cached result from %s (use --refresh to recompute)", snapshot.CreatedAt)
			}
			renderHistorical(output, snapshot)
			return nil
		},
	}

	cmd.Flags().Bool("refresh", false, "recompute even if a cached result exists")
	cmd.Flags().Bool("list", false, "list cached analysis dates")
	cmd.Flags().Bool("clear", false, "delete cached analysis (for the given date, or all)")
	return cmd
}

func runHistoricalList(cmd *cobra.Command, output *Output, analyzer *historical.Analyzer) error {
	dates, err := analyzer.List(cmd.Context())
	if err != nil {
		return err
	}
	if output.IsJSON() {
		return output.JSON(map[string]interface{}{"dates": dates})
	}
	if len(dates) == 0 {
		output.Dim("No cached analyses.")
		return nil
	}
	output.Bold("Cached Analyses")
	for _, date := range dates {
		output.Printf("  %s\n", date)
	}
	return nil
}

func runHistoricalClear(cmd *cobra.Command, output *Output, analyzer *historical.Analyzer, args []string) error {
	date := ""
	if len(args) > 0 {
		date = args[0]
	}
	cleared, err := analyzer.Clear(cmd.Context(), date)
	if err != nil {
		return err
	}
	if output.IsJSON() {
		return output.JSON(map[string]interface{}{"cleared": cleared})
	}
	output.Success("Cleared %d cached analysis(es)", cleared)
	return nil
}

// renderHistorical prints the analysis table plus a summary line.
func renderHistorical(output *Output, snapshot *models.HistoricalSnapshot) {
	output.Bold("Historical Analysis  %s", snapshot.Date)
	output.Println()

	table := NewTable(output, "SYMBOL", "OPEN", "ENTRY", "TARGET", "SL", "STATUS", "ENTRY TIME", "EXIT", "P&L %")
	var entered, target, stopped int
	for _, row := range snapshot.Results {
		switch row.Status {
		case models.StatusEntered:
			entered++
		case models.StatusExitedTarget:
			entered++
			target++
		case models.StatusExitedSL:
			entered++
			stopped++
		}

		exit := "-"
		if row.ExitPrice != nil {
			exit = fmt.Sprintf("%.2f @ %s", *row.ExitPrice, row.ExitTime)
		}
		entryTime := row.EntryTime
		if entryTime == "" {
			entryTime = "-"
		}
		table.AddRow(
			row.Symbol,
			fmt.Sprintf("%.2f", row.Open),
			fmt.Sprintf("%.2f", row.Entry),
			fmt.Sprintf("%.2f", row.Target),
			fmt.Sprintf("%.2f", row.Stoploss),
			statusCell(output, row.Status),
			entryTime,
			exit,
			output.FormatPercent(row.PnlPct),
		)
	}
	table.Render()

	output.Println()
	output.Printf("%d symbols, %d entered, %d hit target, %d stopped out\n",
		len(snapshot.Results), entered, target, stopped)
}
