package config

import (
	"os"
	"time"

	"github.com/PD410/coinbase-notion-sync/internal/domain"
)

// DefaultNotionDatabaseID is the portfolio table used when NOTION_DATABASE_ID
// is not set.
const DefaultNotionDatabaseID = "21c1b8aa8e5c80f4a5d2c3f1e9b7a4d6"

// Config holds all application configuration loaded from environment variables.
// It is constructed once in main and passed into each component.
type Config struct {
	CoinbaseAPIKey    string
	CoinbaseAPISecret string
	CoinbaseBaseURL   string
	NotionToken       string
	NotionDatabaseID  string
	HTTPPort          string
	SyncInterval      time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// It does not validate credentials; call Validate before running a sync.
func Load() Config {
	return Config{
		CoinbaseAPIKey:    os.Getenv("COINBASE_API_KEY"),
		CoinbaseAPISecret: os.Getenv("COINBASE_API_SECRET"),
		CoinbaseBaseURL:   envOrDefault("COINBASE_BASE_URL", "https://api.coinbase.com"),
		NotionToken:       os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID:  envOrDefault("NOTION_DATABASE_ID", DefaultNotionDatabaseID),
		HTTPPort:          envOrDefault("HTTP_PORT", "8080"),
		SyncInterval:      envOrDefaultDuration("SYNC_INTERVAL", 0),
	}
}

// Validate reports every missing credential as a single ConfigurationError.
func (c Config) Validate() error {
	var missing []string
	if c.CoinbaseAPIKey == "" {
		missing = append(missing, "COINBASE_API_KEY")
	}
	if c.CoinbaseAPISecret == "" {
		missing = append(missing, "COINBASE_API_SECRET")
	}
	if c.NotionToken == "" {
		missing = append(missing, "NOTION_TOKEN")
	}
	if len(missing) > 0 {
		return &domain.ConfigurationError{Missing: missing}
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return defaultVal
		}
		return d
	}
	return defaultVal
}
