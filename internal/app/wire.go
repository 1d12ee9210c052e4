package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/quantship/crossarb/internal/blob/s3"
	"github.com/quantship/crossarb/internal/cache/redis"
	"github.com/quantship/crossarb/internal/config"
	"github.com/quantship/crossarb/internal/domain"
	"github.com/quantship/crossarb/internal/notify"
	"github.com/quantship/crossarb/internal/platform/kalshi"
	"github.com/quantship/crossarb/internal/platform/polymarket"
	"github.com/quantship/crossarb/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	MatchStore       domain.MatchStore
	OpportunityStore domain.OpportunityStore
	AuditStore       domain.AuditStore

	// Caches
	PriceCache  domain.PriceCache
	MarketCache domain.MarketCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Blob storage
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Venue clients
	Gamma     *polymarket.GammaClient
	Clob      *polymarket.ClobClient
	KalshiAPI *kalshi.Client

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Redis (caches, rate limiting, locks, pub/sub) ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.PriceCache = redis.NewPriceCache(redisClient)
	deps.MarketCache = redis.NewMarketCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if err := pgClient.RunMigrations(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
	}

	pool := pgClient.Pool()
	deps.MatchStore = postgres.NewMatchStore(pool)
	deps.OpportunityStore = postgres.NewOpportunityStore(pool)
	deps.AuditStore = postgres.NewAuditStore(pool)

	// --- S3 blob storage (snapshot archives, optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		writer := s3blob.NewWriter(s3Client)
		deps.BlobWriter = writer
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewArchiver(
			writer,
			deps.MatchStore,
			deps.OpportunityStore,
			deps.AuditStore,
		)
	}

	// --- Venue clients ---
	deps.Gamma = polymarket.NewGammaClient(
		cfg.Polymarket.GammaHost,
		cfg.Polymarket.HTTPTimeout.Duration,
		deps.RateLimiter,
	)
	deps.Clob = polymarket.NewClobClient(
		cfg.Polymarket.ClobHost,
		cfg.Polymarket.HTTPTimeout.Duration,
		deps.RateLimiter,
	)
	deps.KalshiAPI = kalshi.NewClient(
		cfg.Kalshi.BaseURL,
		cfg.Kalshi.ApiKey,
		cfg.Kalshi.HTTPTimeout.Duration,
		deps.RateLimiter,
	)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
