package config

// Config is the unified application configuration installed by the migrator
// (config/config.yaml). The schema mirrors the bot's settings model; odyctl
// only parses and validates it, the bot itself consumes it at runtime.
type Config struct {
	Project   Project   `yaml:"project"`
	Trading   Trading   `yaml:"trading"`
	Database  Database  `yaml:"database"`
	Exchanges Exchanges `yaml:"exchanges"`
	Risk      Risk      `yaml:"risk_management"`
	Monitor   Monitor   `yaml:"monitoring"`
	Dashboard Dashboard `yaml:"dashboard"`
}

type Project struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type Trading struct {
	Mode           string  `yaml:"mode"` // "testnet" | "live"
	DryRun         bool    `yaml:"dry_run"`
	InitialCapital float64 `yaml:"initial_capital"`
}

type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"` // usually injected via DB__PASSWORD
}

type Exchanges struct {
	Primary    string `yaml:"primary"`     // "binance" | "bybit"
	MarketType string `yaml:"market_type"` // "spot" | "futures"
}

type Risk struct {
	MaxOpenPositions   int     `yaml:"max_open_positions"`
	MaxDrawdownPercent float64 `yaml:"max_drawdown_percent"`
	StopLossPercent    float64 `yaml:"stop_loss_percent"`
}

type Monitor struct {
	TelegramEnabled bool   `yaml:"telegram_enabled"`
	MetricsPort     int    `yaml:"metrics_port"`
	LogLevel        string `yaml:"log_level"`
}

type Dashboard struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}
