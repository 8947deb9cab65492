// Package cli provides the command-line interface for the breakout
// monitor.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"breakout-monitor/internal/config"
	"breakout-monitor/internal/engine"
	"breakout-monitor/internal/feed"
	"breakout-monitor/internal/logging"
	"breakout-monitor/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-11-18"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Store   store.Store
	Signals feed.SignalSource
	Candles feed.CandleSource
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	client := feed.NewClient(cfg.Feed.SignalsURL, cfg.Feed.ShardURLs(), cfg.Feed.Timeout, logger)
	app.Signals = client
	app.Candles = client

	dataStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, state will not persist")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", cfg.Store.Path).Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "breakout-monitor",
		Short: "Intraday breakout monitor for NSE signals",
		Long: `Breakout Monitor tracks intraday open-breakout trades for the Indian
stock market.

It fetches daily entry signals and minute candles from remote feeds,
replays the session to recover missed state, and polls live prices to
advance each symbol through its trade lifecycle.

Use 'breakout-monitor help <command>' for more information about a command.`,
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

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/breakout-monitor)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newLevelsCmd(app))
	rootCmd.AddCommand(newLiveCmd(app))
	rootCmd.AddCommand(newHistoricalCmd(app))
	rootCmd.AddCommand(newResetCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Breakout Monitor v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

// newLevelsCmd computes price levels for a given open, a quick sanity
// check for the configured parameters.
func newLevelsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levels <open-price>",
		Short: "Compute entry, target, and stoploss for an opening price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			open, err := parsePrice(args[0])
			if err != nil {
				return err
			}

			params := engine.Params{
				EntryPct:    app.Config.Engine.EntryPct,
				StoplossPct: app.Config.Engine.StoplossPct,
				RiskReward:  app.Config.Engine.RiskReward,
			}
			levels := engine.Levels(open, params)

			if output.IsJSON() {
				return output.JSON(levels)
			}

			output.Bold("Price Levels (open %.2f)", open)
			output.Printf("  Entry:    %.2f\n", levels.Entry)
			output.Printf("  Target:   %.2f\n", levels.Target)
			output.Printf("  Stoploss: %.2f\n", levels.Stoploss)
			output.Printf("  Risk:     %.2f\n", levels.Risk)
			return nil
		},
	}
	return cmd
}
