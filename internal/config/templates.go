package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Portfolio Analyst Configuration

[pipeline]
# Path to the portfolio JSON file
portfolio_path = "portfolio.json"
# Maximum simultaneous per-symbol research tasks
max_concurrent = 5
# News lookback window in days
news_lookback_days = 7
# Maximum news items per symbol
news_limit = 6
# Per-lookup provider timeout
provider_timeout = "30s"

[schedule]
# Cron expression for scheduled runs (standard 5-field spec)
cron = "0 9 * * 1-5"
# Timezone for the cron schedule
timezone = "Asia/Shanghai"
# Feishu chat to post scheduled reports to
chat_id = ""

[server]
# Webhook server listen address
listen_addr = ":8000"

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true
`

const credentialsTemplate = `# Portfolio Analyst Credentials
# Keep this file private (chmod 600).

[openai]
api_key = ""
# Optional: Azure-OpenAI-compatible endpoint
base_url = ""
model = "gpt-4o"

[finnhub]
api_key = ""

[feishu]
app_id = ""
app_secret = ""
# Optional: enables webhook signature verification when set
encrypt_key = ""
`

// Init writes default config and credentials files to configDir, creating
// the directory if needed. Existing files are left untouched.
func Init(configDir string) error {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	files := map[string]struct {
		content string
		mode    os.FileMode
	}{
		"config.toml":      {configTemplate, 0644},
		"credentials.toml": {credentialsTemplate, 0600},
	}

	for name, f := range files {
		path := filepath.Join(configDir, name)
		if _, err := os.Stat(path); err == nil {
			continue // don't clobber existing config
		}
		if err := os.WriteFile(path, []byte(f.content), f.mode); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	return nil
}
