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
// built-in defaults, applies CROSSARB_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CROSSARB_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "CROSSARB_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "CROSSARB_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.WsHost, "CROSSARB_POLYMARKET_WS_HOST")
	setInt(&cfg.Polymarket.MaxMarkets, "CROSSARB_POLYMARKET_MAX_MARKETS")
	setInt(&cfg.Polymarket.PageSize, "CROSSARB_POLYMARKET_PAGE_SIZE")
	setInt(&cfg.Polymarket.RatePerSec, "CROSSARB_POLYMARKET_RATE_PER_SEC")
	setInt(&cfg.Polymarket.RateBurst, "CROSSARB_POLYMARKET_RATE_BURST")
	setDuration(&cfg.Polymarket.HTTPTimeout, "CROSSARB_POLYMARKET_HTTP_TIMEOUT")

	// ── Kalshi ──
	setStr(&cfg.Kalshi.BaseURL, "CROSSARB_KALSHI_BASE_URL")
	setStr(&cfg.Kalshi.ApiKey, "CROSSARB_KALSHI_API_KEY")
	setInt(&cfg.Kalshi.MaxMarkets, "CROSSARB_KALSHI_MAX_MARKETS")
	setInt(&cfg.Kalshi.PageSize, "CROSSARB_KALSHI_PAGE_SIZE")
	setInt(&cfg.Kalshi.RatePerSec, "CROSSARB_KALSHI_RATE_PER_SEC")
	setInt(&cfg.Kalshi.RateBurst, "CROSSARB_KALSHI_RATE_BURST")
	setDuration(&cfg.Kalshi.HTTPTimeout, "CROSSARB_KALSHI_HTTP_TIMEOUT")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "CROSSARB_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "CROSSARB_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "CROSSARB_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "CROSSARB_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "CROSSARB_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "CROSSARB_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "CROSSARB_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "CROSSARB_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "CROSSARB_POSTGRES_POOL_MIN_CONNS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "CROSSARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "CROSSARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "CROSSARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "CROSSARB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "CROSSARB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "CROSSARB_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "CROSSARB_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "CROSSARB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "CROSSARB_S3_REGION")
	setStr(&cfg.S3.Bucket, "CROSSARB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "CROSSARB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "CROSSARB_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "CROSSARB_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "CROSSARB_S3_FORCE_PATH_STYLE")

	// ── Matcher ──
	setInt(&cfg.Matcher.MinSharedTerms, "CROSSARB_MATCHER_MIN_SHARED_TERMS")
	setFloat64(&cfg.Matcher.MinScore, "CROSSARB_MATCHER_MIN_SCORE")

	// ── Arbitrage ──
	setInt(&cfg.Arbitrage.FreshnessWindowSec, "CROSSARB_ARBITRAGE_FRESHNESS_WINDOW_SEC")
	setFloat64(&cfg.Arbitrage.MinEdgePercent, "CROSSARB_ARBITRAGE_MIN_EDGE_PERCENT")
	setFloat64(&cfg.Arbitrage.MinLiquidityDollars, "CROSSARB_ARBITRAGE_MIN_LIQUIDITY_DOLLARS")
	setFloat64(&cfg.Arbitrage.SlippageBufferPct, "CROSSARB_ARBITRAGE_SLIPPAGE_BUFFER_PCT")
	setFloat64(&cfg.Arbitrage.FeesPercent, "CROSSARB_ARBITRAGE_FEES_PERCENT")

	// ── Scanner ──
	setDuration(&cfg.Scanner.ScanInterval, "CROSSARB_SCANNER_SCAN_INTERVAL")
	setDuration(&cfg.Scanner.PriceInterval, "CROSSARB_SCANNER_PRICE_INTERVAL")
	setBool(&cfg.Scanner.ArchiveEnabled, "CROSSARB_SCANNER_ARCHIVE_ENABLED")
	setDuration(&cfg.Scanner.ArchiveInterval, "CROSSARB_SCANNER_ARCHIVE_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "CROSSARB_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "CROSSARB_SERVER_PORT")
	setStr(&cfg.Server.ApiKey, "CROSSARB_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "CROSSARB_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "CROSSARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "CROSSARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "CROSSARB_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "CROSSARB_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "CROSSARB_MODE")
	setStr(&cfg.LogLevel, "CROSSARB_LOG_LEVEL")
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
