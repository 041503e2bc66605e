package infra

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every application setting. LoadConfig reads the yaml file and
// then lets environment variables override the sensitive fields.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Trading struct {
		Mode string `yaml:"mode"` // PAPER, MOCK, REAL
	} `yaml:"trading"`

	API struct {
		Upstox struct {
			RestURL     string `yaml:"rest_url"`
			FeedWSURL   string `yaml:"feed_ws_url"` // empty disables the streaming feed
			AccessToken string `yaml:"access_token"`
		} `yaml:"upstox"`
	} `yaml:"api"`

	Monitor struct {
		PollIntervalSec  int `yaml:"poll_interval_sec"`
		QuoteStalenessMS int `yaml:"quote_staleness_ms"` // feed cache freshness window
	} `yaml:"monitor"`

	Instruments struct {
		File string `yaml:"file"` // NSE symbol -> instrument_token table
	} `yaml:"instruments"`

	Batch struct {
		File string `yaml:"file"` // order requests to submit on startup
	} `yaml:"batch"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the config file, applies env overrides, and
// fails fast on an invalid configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// PollInterval returns the stop-loss poll interval with the 5s default.
func (c *Config) PollInterval() time.Duration {
	if c.Monitor.PollIntervalSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Monitor.PollIntervalSec) * time.Second
}

// QuoteStaleness returns how long a streamed LTP stays usable before the
// monitor falls back to a REST quote.
func (c *Config) QuoteStaleness() time.Duration {
	if c.Monitor.QuoteStalenessMS <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.Monitor.QuoteStalenessMS) * time.Millisecond
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	switch c.Trading.Mode {
	case "PAPER", "MOCK", "REAL":
	case "":
		return fmt.Errorf("trading mode is required (PAPER, MOCK or REAL)")
	default:
		return fmt.Errorf("unknown trading mode: %s", c.Trading.Mode)
	}

	if c.Trading.Mode == "REAL" {
		if !hasPrefix(c.API.Upstox.RestURL, "https://") {
			return fmt.Errorf("invalid Upstox REST URL: %s", c.API.Upstox.RestURL)
		}
		if c.API.Upstox.AccessToken == "" {
			return fmt.Errorf("REAL mode requires an Upstox access token")
		}
	}

	if url := c.API.Upstox.FeedWSURL; url != "" && !hasPrefix(url, "ws://") && !hasPrefix(url, "wss://") {
		return fmt.Errorf("invalid feed WS URL: %s", url)
	}

	if c.Monitor.PollIntervalSec < 0 {
		return fmt.Errorf("poll interval must not be negative")
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv lets environment variables take precedence over file values
// for secrets, so tokens never have to live in the config file.
func overrideWithEnv(cfg *Config) {
	if cfg.API.Upstox.AccessToken != "" {
		fmt.Println("⚠️  SECURITY WARNING: Upstox access token found in config file.")
		fmt.Println("   Recommendation: use the UPSTOX_ACCESS_TOKEN environment variable instead.")
	}

	if token := os.Getenv("UPSTOX_ACCESS_TOKEN"); token != "" {
		cfg.API.Upstox.AccessToken = token
		return
	}

	// Last resort before the config file value: the secrets file. The Upstox
	// token rotates daily, so keeping it out of config.yaml is the norm.
	if cfg.API.Upstox.AccessToken == "" {
		if secret, err := LoadSecretConfig("secrets/upstox.yaml"); err == nil {
			cfg.API.Upstox.AccessToken = secret.API.Upstox.AccessToken
		}
	}
}
