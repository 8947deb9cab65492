package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	apperrors "breakout-monitor/internal/errors"
	"breakout-monitor/internal/metrics"
	"breakout-monitor/internal/models"
	"breakout-monitor/internal/session"
)

// newLiveCmd starts the live monitoring loop.
func newLiveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Monitor today's signals with live price updates",
		Long: `Fetches today's signals (falling back to the previous trading day once
if none exist), seeds per-symbol state from a full-day replay or the
persisted session, then polls live prices and renders the trade table
until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return apperrors.ErrDatabaseError
			}
			output := NewOutput(cmd)

			interval, _ := cmd.Flags().GetDuration("interval")
			once, _ := cmd.Flags().GetBool("once")

			if app.Config.Metrics.ListenAddr != "" {
				metrics.Serve(app.Config.Metrics.ListenAddr, app.Logger)
			}

			coord := session.New(
				session.Config{
					PollInterval: interval,
					MarginFactor: app.Config.Session.MarginFactor,
				},
				app.Signals,
				app.Candles,
				app.Store,
				func(rows []models.LiveRow) { renderLiveRows(output, rows) },
				app.Logger,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := coord.Init(ctx); err != nil {
				if apperrors.Is(err, apperrors.ErrNoSignalsFound) {
					output.Warning("No signals found for today or the previous trading day.")
					return nil
				}
				return err
			}

			output.Info("Monitoring %s", coord.TradeDate())

			if once {
				return nil
			}

			err := coord.Run(ctx)
			if err != nil && ctx.Err() != nil {
				// Operator interrupt, not a failure.
				output.Println()
				output.Dim("Stopped.")
				return nil
			}
			return err
		},
	}

	cmd.Flags().Duration("interval", defaultInterval(app), "poll interval")
	cmd.Flags().Bool("once", false, "initialize and print state without polling")
	return cmd
}

func defaultInterval(app *App) time.Duration {
	if app.Config != nil && app.Config.Session.PollInterval > 0 {
		return app.Config.Session.PollInterval
	}
	return session.DefaultPollInterval
}

// renderLiveRows clears the screen and prints the live trade table.
func renderLiveRows(output *Output, rows []models.LiveRow) {
	if output.IsJSON() {
		output.JSON(rows)
		return
	}

	// ANSI clear so the table repaints in place each cycle.
	output.Print("\033[2J\033[H")
	output.Bold("Live Trades  %s", time.Now().Format("15:04:05"))
	output.Println()

	table := NewTable(output, "SYMBOL", "ENTRY", "LTP", "STATUS", "ENTRY TIME", "EXIT", "QTY", "CAPITAL", "MARGIN", "P&L %", "P&L")
	for _, row := range rows {
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
			fmt.Sprintf("%.2f", row.Entry),
			fmt.Sprintf("%.2f", row.LTP),
			statusCell(output, row.Status),
			entryTime,
			exit,
			FormatQuantity(row.Qty),
			FormatIndianCurrency(row.CapitalUsed),
			FormatIndianCurrency(row.MarginRequired),
			output.FormatPercent(row.PnlPct),
			output.FormatPnL(row.PnlCapital),
		)
	}
	table.Render()
}

// statusCell colors a trade status for the table.
func statusCell(output *Output, status models.TradeStatus) string {
	switch status {
	case models.StatusEntered:
		return output.Cyan(string(status))
	case models.StatusExitedTarget:
		return output.Green(string(status))
	case models.StatusExitedSL:
		return output.Red(string(status))
	default:
		return output.DimText(string(status))
	}
}

// newResetCmd clears all persisted state and re-initializes.
func newResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear persisted session and historical state",
		Long: `Deletes all persisted session state and historical snapshots, then
re-runs session initialization. Use when cached state is stale or
corrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return apperrors.ErrDatabaseError
			}
			output := NewOutput(cmd)

			coord := session.New(session.Config{}, app.Signals, app.Candles, app.Store, nil, app.Logger)

			err := coord.Reset(cmd.Context())
			if apperrors.Is(err, apperrors.ErrNoSignalsFound) {
				output.Warning("State cleared; no signals available to re-initialize.")
				return nil
			}
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"cleared":    true,
					"trade_date": coord.TradeDate(),
					"symbols":    len(coord.States()),
				})
			}
			output.Success("State cleared and re-initialized for %s (%d symbols)", coord.TradeDate(), len(coord.States()))
			return nil
		},
	}
}
