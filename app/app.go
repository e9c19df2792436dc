package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"

	"github.com/codshopapp/codshop/internal/botcheck"
	"github.com/codshopapp/codshop/internal/cache"
	"github.com/codshopapp/codshop/internal/checkout"
	"github.com/codshopapp/codshop/internal/config"
	"github.com/codshopapp/codshop/internal/crypto"
	"github.com/codshopapp/codshop/internal/db"
	"github.com/codshopapp/codshop/internal/handlers"
	"github.com/codshopapp/codshop/internal/ratelimit"
	"github.com/codshopapp/codshop/internal/regions"
	"github.com/codshopapp/codshop/internal/tracking"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Dispatcher    *tracking.Dispatcher
	Handlers      *handlers.Handlers
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	regionTable, err := regions.NewTable()
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to load region table: %w", err)
	}

	settingsStore, err := db.NewSettingsStore(database, cacheProvider, encryptor)
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize settings store: %w", err)
	}

	orderStore := db.NewOrderStore(database)
	cartStore := db.NewCartStore(database)
	auditStore := db.NewAuditStore(database)
	catalogStore := db.NewCatalogStore(database)
	shippingStore := db.NewShippingStore(database)
	rateLimitStore := db.NewRateLimitStore(database)
	trackingEventStore := db.NewTrackingEventStore(database)

	botClient := botcheck.NewClient(
		cfg.BotVerifyURL,
		cfg.BotVerifySecret,
		cfg.UpstreamTimeout,
		logger.With("component", "botcheck"),
	)
	limiter := ratelimit.New(rateLimitStore, cfg.IPRateLimit, cfg.PhoneRateLimit)

	metaClient := tracking.NewMetaClient(
		platformCredentials(settingsStore, db.SettingMetaPixelID, db.SettingMetaAccessToken),
		cfg.TrackingTimeout,
	)
	tiktokClient := tracking.NewTikTokClient(
		platformCredentials(settingsStore, db.SettingTikTokPixelCode, db.SettingTikTokAccessToken),
		cfg.TrackingTimeout,
	)
	dispatcher := tracking.NewDispatcher(
		trackingEventStore,
		[]tracking.PlatformClient{metaClient, tiktokClient},
		cfg.TrackingTimeout,
		logger.With("component", "tracking_dispatcher"),
	)

	checkoutService := checkout.NewService(
		orderStore,
		cartStore,
		auditStore,
		regionTable,
		botClient,
		limiter,
		checkout.NewDuplicateDetector(orderStore),
		checkout.NewPricer(catalogStore, shippingStore),
		settingsStore,
		dispatcher,
		logger.With("component", "checkout_service"),
	)

	h, err := handlers.New(handlers.Dependencies{
		Config:   cfg,
		DB:       database,
		Checkout: checkoutService,
		Regions:  regionTable,
		Logger:   logger,
	})
	if err != nil {
		closeDispatcher(logger, dispatcher)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Dispatcher:    dispatcher,
		Handlers:      h,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Dispatcher != nil {
		closeDispatcher(a.Logger, a.Dispatcher)
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// platformCredentials resolves a platform's pixel id and decrypted access
// token at send time, so settings changes apply without a restart. An
// unconfigured platform yields empty credentials, not an error.
func platformCredentials(settings *db.SettingsStore, idKey, tokenKey string) tracking.CredentialsFunc {
	return func(ctx context.Context) (string, string, error) {
		pixelID, err := settings.Get(ctx, idKey)
		if errors.Is(err, db.ErrNotFound) {
			return "", "", nil
		}
		if err != nil {
			return "", "", err
		}

		token, err := settings.Credential(ctx, tokenKey)
		if errors.Is(err, db.ErrNotFound) {
			return "", "", nil
		}
		if err != nil {
			return "", "", err
		}
		return pixelID, token, nil
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	case "text", "":
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level: cfg.LogLevel,
		}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel}))
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}

func closeDispatcher(logger *slog.Logger, dispatcher *tracking.Dispatcher) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Close(); err != nil && logger != nil {
		logger.Warn("failed to close tracking dispatcher", "error", err)
	}
}
