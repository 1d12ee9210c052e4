// Package config defines the top-level configuration for the cross-venue
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by CROSSARB_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Matcher    MatcherConfig    `toml:"matcher"`
	Arbitrage  ArbitrageConfig  `toml:"arbitrage"`
	Scanner    ScannerConfig    `toml:"scanner"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints.
type PolymarketConfig struct {
	GammaHost   string   `toml:"gamma_host"`
	ClobHost    string   `toml:"clob_host"`
	WsHost      string   `toml:"ws_host"`
	MaxMarkets  int      `toml:"max_markets"`
	PageSize    int      `toml:"page_size"`
	RatePerSec  int      `toml:"rate_per_sec"`
	RateBurst   int      `toml:"rate_burst"`
	HTTPTimeout duration `toml:"http_timeout"`
}

// KalshiConfig holds Kalshi exchange API parameters. Market listing and
// pricing are public endpoints; the API key is only needed for higher rate
// limits.
type KalshiConfig struct {
	BaseURL     string   `toml:"base_url"`
	ApiKey      string   `toml:"api_key"`
	MaxMarkets  int      `toml:"max_markets"`
	PageSize    int      `toml:"page_size"`
	RatePerSec  int      `toml:"rate_per_sec"`
	RateBurst   int      `toml:"rate_burst"`
	HTTPTimeout duration `toml:"http_timeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for snapshot
// archives.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// MatcherConfig holds market matching parameters.
type MatcherConfig struct {
	MinSharedTerms int     `toml:"min_shared_terms"`
	MinScore       float64 `toml:"min_score"`
}

// ArbitrageConfig holds detection guardrail parameters.
type ArbitrageConfig struct {
	FreshnessWindowSec  int     `toml:"freshness_window_sec"`
	MinEdgePercent      float64 `toml:"min_edge_percent"`
	MinLiquidityDollars float64 `toml:"min_liquidity_dollars"`
	SlippageBufferPct   float64 `toml:"slippage_buffer_pct"`
	FeesPercent         float64 `toml:"fees_percent"`
}

// ScannerConfig holds scan-loop cadence parameters.
type ScannerConfig struct {
	ScanInterval    duration `toml:"scan_interval"`
	PriceInterval   duration `toml:"price_interval"`
	ArchiveEnabled  bool     `toml:"archive_enabled"`
	ArchiveInterval duration `toml:"archive_interval"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	ApiKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:   "https://gamma-api.polymarket.com",
			ClobHost:    "https://clob.polymarket.com",
			WsHost:      "wss://ws-subscriptions-clob.polymarket.com",
			MaxMarkets:  2000,
			PageSize:    500,
			RatePerSec:  10,
			RateBurst:   20,
			HTTPTimeout: duration{15 * time.Second},
		},
		Kalshi: KalshiConfig{
			BaseURL:     "https://api.elections.kalshi.com/trade-api/v2",
			MaxMarkets:  2000,
			PageSize:    200,
			RatePerSec:  10,
			RateBurst:   20,
			HTTPTimeout: duration{15 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "crossarb",
			User:         "postgres",
			SSLMode:      "disable",
			PoolMaxConns: 10,
			PoolMinConns: 2,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "crossarb-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Matcher: MatcherConfig{
			MinSharedTerms: 2,
			MinScore:       0.55,
		},
		Arbitrage: ArbitrageConfig{
			FreshnessWindowSec:  30,
			MinEdgePercent:      1.0,
			MinLiquidityDollars: 500,
			SlippageBufferPct:   0.5,
			FeesPercent:         1.0,
		},
		Scanner: ScannerConfig{
			ScanInterval:    duration{10 * time.Minute},
			PriceInterval:   duration{15 * time.Second},
			ArchiveEnabled:  false,
			ArchiveInterval: duration{1 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity", "trade_plan", "match_found"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":    true,
	"monitor": true,
	"server":  true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, monitor, server, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Polymarket endpoints
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.PageSize <= 0 {
		errs = append(errs, "polymarket: page_size must be > 0")
	}

	// Kalshi
	if c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}
	if c.Kalshi.PageSize <= 0 {
		errs = append(errs, "kalshi: page_size must be > 0")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Matcher
	if c.Matcher.MinSharedTerms < 1 {
		errs = append(errs, "matcher: min_shared_terms must be >= 1")
	}
	if c.Matcher.MinScore <= 0 || c.Matcher.MinScore > 1 {
		errs = append(errs, fmt.Sprintf("matcher: min_score must be in (0,1], got %g", c.Matcher.MinScore))
	}

	// Arbitrage guardrails
	if c.Arbitrage.MinEdgePercent < 0 {
		errs = append(errs, "arbitrage: min_edge_percent must be >= 0")
	}
	if c.Arbitrage.FeesPercent < 0 || c.Arbitrage.SlippageBufferPct < 0 {
		errs = append(errs, "arbitrage: fees_percent and slippage_buffer_pct must be >= 0")
	}

	// Scanner
	if c.Scanner.ScanInterval.Duration <= 0 {
		errs = append(errs, "scanner: scan_interval must be > 0")
	}
	if c.Scanner.PriceInterval.Duration <= 0 {
		errs = append(errs, "scanner: price_interval must be > 0")
	}

	// Server
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
