package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBMON_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBMON_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Polymarket.ClobHost, "ARBMON_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "ARBMON_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.WsHost, "ARBMON_POLYMARKET_WS_HOST")
	setStr(&cfg.Polymarket.ApiKey, "ARBMON_POLYMARKET_API_KEY")
	setFloat64(&cfg.Polymarket.RateLimitRPS, "ARBMON_POLYMARKET_RATE_LIMIT_RPS")

	setStr(&cfg.Monitor.Mode, "ARBMON_MONITOR_MODE")
	setInt(&cfg.Monitor.HistoryCapacity, "ARBMON_MONITOR_HISTORY_CAPACITY")
	setInt(&cfg.Monitor.MaxRecords, "ARBMON_MONITOR_MAX_RECORDS")
	setInt(&cfg.Monitor.LogBuffer, "ARBMON_MONITOR_LOG_BUFFER")
	setInt(&cfg.Monitor.LatencyWindow, "ARBMON_MONITOR_LATENCY_WINDOW")
	setDuration(&cfg.Monitor.PollInterval, "ARBMON_MONITOR_POLL_INTERVAL")
	setInt(&cfg.Monitor.PollWidth, "ARBMON_MONITOR_POLL_WIDTH")
	setStringSlice(&cfg.Monitor.EventSlugs, "ARBMON_MONITOR_EVENT_SLUGS")
	setBool(&cfg.Monitor.AutoDiscover, "ARBMON_MONITOR_AUTO_DISCOVER")
	setInt(&cfg.Monitor.DiscoveryLimit, "ARBMON_MONITOR_DISCOVERY_LIMIT")
	setBool(&cfg.Monitor.AutoStart, "ARBMON_MONITOR_AUTO_START")

	setBool(&cfg.Execution.AutoExecute, "ARBMON_EXECUTION_AUTO_EXECUTE")
	setFloat64(&cfg.Execution.Bankroll, "ARBMON_EXECUTION_BANKROLL")
	setFloat64(&cfg.Execution.MinProfitPercent, "ARBMON_EXECUTION_MIN_PROFIT_PERCENT")
	setInt(&cfg.Execution.MaxResults, "ARBMON_EXECUTION_MAX_RESULTS")

	setBool(&cfg.Server.Enabled, "ARBMON_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ARBMON_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "ARBMON_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBMON_SERVER_CORS_ORIGINS")

	setStr(&cfg.LogLevel, "ARBMON_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
