package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Breakout Monitor Configuration

[engine]
# Breakout entry threshold as fraction of the opening price
entry_pct = 0.03
# Stoploss threshold as fraction of the opening price
stoploss_pct = 0.01
# Risk-reward multiplier applied to the entry-stoploss distance
risk_reward = 1.0

[session]
# Live poll interval (e.g., "3s", "5s")
poll_interval = "3s"
# Intraday leverage divisor for the margin column
margin_factor = 5.0

[feed]
# Signals endpoint; append ?date=YYYY-MM-DD for a specific day
signals_url = "https://project-get-entry.vercel.app/api/signals"
# Candle shard URL template; %d is replaced by the shard number
shard_url_template = "https://project-g-stock-%d.vercel.app/api/live-candles"
# Number of candle shards
shard_count = 10
# HTTP timeout per request
timeout = "10s"

[store]
# SQLite database path; defaults to the config directory
# path = ""

[metrics]
# Prometheus listen address (e.g., ":9090"); empty disables the endpoint
listen_addr = ""

[logging]
# Log level: debug, info, warn, error
level = "info"
# Enable console output (stderr)
console = true
# Enable file output with rotation
file = true
# Max log file size in MB before rotation
max_size = 50
# Number of rotated files to keep
max_backups = 5
# Max age of rotated files in days
max_age = 30
`

// createTemplateConfig writes the default config.toml so the operator
// has something to edit. Defaults still apply for this run.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
