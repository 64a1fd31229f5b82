// Package config defines the top-level configuration for the arbitrage
// monitor and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBMON_* environment
// variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Monitor    MonitorConfig    `toml:"monitor"`
	Execution  ExecutionConfig  `toml:"execution"`
	Server     ServerConfig     `toml:"server"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints and credentials.
type PolymarketConfig struct {
	ClobHost     string  `toml:"clob_host"`
	GammaHost    string  `toml:"gamma_host"`
	WsHost       string  `toml:"ws_host"`
	ApiKey       string  `toml:"api_key"`
	RateLimitRPS float64 `toml:"rate_limit_rps"`
}

// MonitorConfig holds feed selection and retention parameters.
type MonitorConfig struct {
	// Mode selects the orderbook feed: "stream" (WebSocket) or "poll" (REST).
	Mode            string   `toml:"mode"`
	HistoryCapacity int      `toml:"history_capacity"`
	MaxRecords      int      `toml:"max_records"`
	LogBuffer       int      `toml:"log_buffer"`
	LatencyWindow   int      `toml:"latency_window"`
	PollInterval    duration `toml:"poll_interval"`
	PollWidth       int      `toml:"poll_width"`
	// EventSlugs are subscribed at startup; discovery adds more when enabled.
	EventSlugs     []string `toml:"event_slugs"`
	AutoDiscover   bool     `toml:"auto_discover"`
	DiscoveryLimit int      `toml:"discovery_limit"`
	AutoStart      bool     `toml:"auto_start"`
}

// ExecutionConfig holds trade execution parameters.
type ExecutionConfig struct {
	AutoExecute      bool    `toml:"auto_execute"`
	Bankroll         float64 `toml:"bankroll"`
	MinProfitPercent float64 `toml:"min_profit_percent"`
	MaxResults       int     `toml:"max_results"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "1s", "500ms").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder
// can parse duration strings like "1s" or "500ms".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			ClobHost:     "https://clob.polymarket.com",
			GammaHost:    "https://gamma-api.polymarket.com",
			WsHost:       "wss://ws-subscriptions-clob.polymarket.com/ws/market",
			RateLimitRPS: 20,
		},
		Monitor: MonitorConfig{
			Mode:            "stream",
			HistoryCapacity: 1000,
			MaxRecords:      10000,
			LogBuffer:       500,
			LatencyWindow:   100,
			PollInterval:    duration{time.Second},
			PollWidth:       10,
			AutoDiscover:    false,
			DiscoveryLimit:  100,
			AutoStart:       true,
		},
		Execution: ExecutionConfig{
			AutoExecute:      false,
			Bankroll:         100.0,
			MinProfitPercent: 1.0,
			MaxResults:       1000,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Monitor.Mode.
var validModes = map[string]bool{
	"stream": true,
	"poll":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Monitor.Mode)] {
		errs = append(errs, fmt.Sprintf("monitor: unknown mode %q (valid: stream, poll)", c.Monitor.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if strings.ToLower(c.Monitor.Mode) == "stream" && c.Polymarket.WsHost == "" {
		errs = append(errs, "polymarket: ws_host must not be empty in stream mode")
	}
	if c.Polymarket.RateLimitRPS <= 0 {
		errs = append(errs, "polymarket: rate_limit_rps must be > 0")
	}

	if c.Monitor.HistoryCapacity < 1 {
		errs = append(errs, "monitor: history_capacity must be >= 1")
	}
	if c.Monitor.MaxRecords < 1 {
		errs = append(errs, "monitor: max_records must be >= 1")
	}
	if c.Monitor.LogBuffer < 1 {
		errs = append(errs, "monitor: log_buffer must be >= 1")
	}
	if c.Monitor.LatencyWindow < 1 {
		errs = append(errs, "monitor: latency_window must be >= 1")
	}
	if c.Monitor.PollInterval.Duration <= 0 {
		errs = append(errs, "monitor: poll_interval must be > 0")
	}
	if c.Monitor.PollWidth < 1 {
		errs = append(errs, "monitor: poll_width must be >= 1")
	}
	if c.Monitor.AutoDiscover && c.Monitor.DiscoveryLimit < 1 {
		errs = append(errs, "monitor: discovery_limit must be >= 1 when auto_discover is on")
	}

	if c.Execution.AutoExecute {
		if c.Polymarket.ApiKey == "" {
			errs = append(errs, "execution: polymarket.api_key is required when auto_execute is on")
		}
		if c.Execution.Bankroll <= 0 {
			errs = append(errs, "execution: bankroll must be > 0 when auto_execute is on")
		}
		if c.Execution.MinProfitPercent < 0 {
			errs = append(errs, "execution: min_profit_percent must be >= 0")
		}
	}
	if c.Execution.MaxResults < 1 {
		errs = append(errs, "execution: max_results must be >= 1")
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
