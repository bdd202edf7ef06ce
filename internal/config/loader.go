package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var validTradingModes = map[string]bool{"testnet": true, "live": true}

var validExchanges = map[string]bool{"binance": true, "bybit": true}

// Load reads and parses the unified configuration file, then validates it.
// A parse or validation error here is what gates the migrator's commit.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the structural rules the bot relies on: required sections
// present, enums within their allowed sets, numeric ranges sane.
func (c *Config) Validate() error {
	if c.Project.Name == "" {
		return fmt.Errorf("config invalid: project.name is required")
	}
	if !validTradingModes[c.Trading.Mode] {
		return fmt.Errorf("config invalid: trading.mode must be testnet or live, got %q", c.Trading.Mode)
	}
	if c.Trading.InitialCapital < 100 {
		return fmt.Errorf("config invalid: trading.initial_capital must be >= 100, got %v", c.Trading.InitialCapital)
	}
	if c.Database.Name == "" || c.Database.User == "" {
		return fmt.Errorf("config invalid: database.name and database.user are required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config invalid: database.port out of range: %d", c.Database.Port)
	}
	if !validExchanges[c.Exchanges.Primary] {
		return fmt.Errorf("config invalid: exchanges.primary must be binance or bybit, got %q", c.Exchanges.Primary)
	}
	if c.Risk.MaxDrawdownPercent < 0 || c.Risk.MaxDrawdownPercent > 100 {
		return fmt.Errorf("config invalid: risk_management.max_drawdown_percent out of range: %v", c.Risk.MaxDrawdownPercent)
	}
	return nil
}
