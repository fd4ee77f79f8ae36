// Package config exposes strongly typed application configuration
// structs loaded from YAML. Credentials never live here; they come from
// the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	WebhookAddr string `yaml:"webhook_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Feed describes the market data source.
type Feed struct {
	Provider       string   `yaml:"provider"` // stub | binance
	Symbols        []string `yaml:"symbols"`
	WindowCapacity int      `yaml:"window_capacity"`
}

// Strategy selects the active signal generator and its knobs.
type Strategy struct {
	Mode   string `yaml:"mode"` // "" | hfmt | highreturn
	Params Params `yaml:"params"`
}

// Params groups tunable knobs for the strategy implementations.
type Params struct {
	DropThreshold    float64 `yaml:"drop_threshold"`
	RiseThreshold    float64 `yaml:"rise_threshold"`
	HFMTRiskPct      float64 `yaml:"hfmt_risk_pct"`
	RSIPeriod        int     `yaml:"rsi_period"`
	VWAPPeriod       int     `yaml:"vwap_period"`
	BaseRiskPct      float64 `yaml:"base_risk_pct"`
	RSIBoostPct      float64 `yaml:"rsi_boost_pct"`
	DeviationBoost   float64 `yaml:"deviation_boost_pct"`
	DeviationTrigger float64 `yaml:"deviation_trigger_pct"`
}

// Risk encodes sizing bounds and the leverage policy.
type Risk struct {
	MinRiskPct         float64        `yaml:"min_risk_pct"`
	MaxRiskPct         float64        `yaml:"max_risk_pct"`
	Precision          int            `yaml:"precision"`
	PrecisionOverrides map[string]int `yaml:"precision_overrides"`
	Leverage           Leverage       `yaml:"leverage"`
}

// Leverage configures the fixed-or-dynamic multiplier selection.
type Leverage struct {
	Dynamic          bool    `yaml:"dynamic"`
	Fixed            float64 `yaml:"fixed"`
	MinLeverage      float64 `yaml:"min"`
	MaxLeverage      float64 `yaml:"max"`
	VolatilityPeriod int     `yaml:"volatility_period"`
	VolThreshold     float64 `yaml:"vol_threshold"`
	VolScale         float64 `yaml:"vol_scale"`
}

// Exits carries the per-position exit thresholds as fractions.
type Exits struct {
	StopLossPct     float64 `yaml:"stop_loss_pct"`
	TakeProfitPct   float64 `yaml:"take_profit_pct"`
	TrailingEnabled bool    `yaml:"trailing_enabled"`
	TrailingPct     float64 `yaml:"trailing_pct"`
}

// Engine holds loop cadence and account bootstrap.
type Engine struct {
	TickIntervalMs  int     `yaml:"tick_interval_ms"`
	ErrorBackoffMs  int     `yaml:"error_backoff_ms"`
	StartingBalance float64 `yaml:"starting_balance"`
	KillSwitch      bool    `yaml:"kill_switch"`
}

// Journal configures the trade log sink.
type Journal struct {
	Path string `yaml:"path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Feed     Feed     `yaml:"feed"`
	Strategy Strategy `yaml:"strategy"`
	Risk     Risk     `yaml:"risk"`
	Exits    Exits    `yaml:"exits"`
	Engine   Engine   `yaml:"engine"`
	Journal  Journal  `yaml:"journal"`
}

// TickInterval returns the loop cadence, defaulting to one second.
func (e Engine) TickInterval() time.Duration {
	if e.TickIntervalMs <= 0 {
		return time.Second
	}
	return time.Duration(e.TickIntervalMs) * time.Millisecond
}

// ErrorBackoff returns the pause after an unexpected tick failure.
func (e Engine) ErrorBackoff() time.Duration {
	if e.ErrorBackoffMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(e.ErrorBackoffMs) * time.Millisecond
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configurations the engine cannot start from. These
// are fatal at startup, not per-tick conditions.
func (c *Config) Validate() error {
	if len(c.Feed.Symbols) == 0 {
		return fmt.Errorf("config: at least one symbol is required")
	}
	if c.Engine.StartingBalance <= 0 {
		return fmt.Errorf("config: starting balance must be positive")
	}
	if c.Risk.MinRiskPct < 0 || c.Risk.MaxRiskPct < 0 {
		return fmt.Errorf("config: risk bounds must not be negative")
	}
	if c.Risk.MinRiskPct > 0 && c.Risk.MaxRiskPct > 0 && c.Risk.MinRiskPct > c.Risk.MaxRiskPct {
		return fmt.Errorf("config: min risk pct exceeds max")
	}
	return nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
