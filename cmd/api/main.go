package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"yardcraft/internal/adapter/repo"
	"yardcraft/internal/http/handlers"
	"yardcraft/internal/http/httpapi"
	"yardcraft/internal/infra"
	"yardcraft/internal/infra/credentials"
	"yardcraft/internal/ledger"
	"yardcraft/internal/notify"
	"yardcraft/internal/providers/gemini"
	"yardcraft/internal/redesign"
	"yardcraft/internal/session"
	"yardcraft/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	if err := infra.Migrate(ctx, dbpool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	runner := infra.NewSQLRunner(dbpool, logger.With().Str("component", "sql").Logger())
	accounts := repo.NewAccountRepository(runner)
	redesigns := repo.NewRedesignRepository(runner)
	webhooks := repo.NewWebhookEventRepository(runner)
	usage := ledger.New(repo.NewLedgerRepository(runner), logger)

	backend, staticDir, err := buildObjectStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise storage")
	}
	objects := storage.WithRetry(backend, storage.RetryPolicy{
		MaxAttempts: cfg.UploadMaxAttempts,
		BaseDelay:   cfg.UploadBaseDelay,
	}, logger)
	gateway := redesign.NewGateway(objects, redesigns, usage, logger)

	generator, validator := buildModels(ctx, cfg, credentials.NewStore(runner), logger)

	tracker, closeTracker := buildTracker(ctx, cfg, logger)
	defer closeTracker()

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	var mailer *notify.Mailer
	if cfg.MailEnabled() {
		mailer = notify.NewMailer(notify.MailConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromEmail: cfg.SMTPFrom,
			AppURL:    cfg.AppURL,
		}, logger)
		notifiers = append(notifiers, mailer)
	}

	orchestrator := redesign.NewOrchestrator(redesign.Deps{
		Ledger:    usage,
		Generator: generator,
		Validator: validator,
		Persister: gateway,
		Tracker:   tracker,
		Notifier:  notifiers,
	}, logger, redesign.WithAttemptTimeout(cfg.AttemptTimeout))

	requestValidator, err := redesign.NewRequestValidator()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build request validator")
	}

	app := &handlers.App{
		Logger:         logger,
		Accounts:       accounts,
		Redesigns:      redesigns,
		Webhooks:       webhooks,
		Ledger:         usage,
		Orchestrator:   orchestrator,
		Validator:      requestValidator,
		Images:         gateway,
		Objects:        objects,
		MaxUploadBytes: cfg.MaxUploadBytes,
		WebhookSecret:  cfg.BillingWebhookSecret,
	}
	if cfg.BillingWebhookSecret == "" {
		logger.Warn().Msg("BILLING_WEBHOOK_SECRET is empty, billing webhooks are disabled")
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		StaticDir:       staticDir,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := infra.NewHTTPServer(cfg, router, logger)
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}
	if mailer != nil {
		mailer.Wait()
	}
	logger.Info().Msg("server stopped")
}

// buildObjectStore returns the configured store and, for the filesystem
// driver, the directory to serve under /static.
func buildObjectStore(ctx context.Context, cfg *infra.Config) (storage.ObjectStore, string, error) {
	if cfg.StorageDriver == "s3" {
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		return store, "", err
	}
	store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		return nil, "", err
	}
	return store, store.BasePath(), nil
}

func buildModels(ctx context.Context, cfg *infra.Config, keys *credentials.Store, logger zerolog.Logger) (redesign.Generator, redesign.Validator) {
	lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	apiKey, err := keys.ResolveGeminiKey(lookupCtx, cfg.GeminiAPIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("could not load stored gemini key")
	}
	if apiKey == "" {
		if !allowSynthetic(cfg.AppEnv) {
			logger.Fatal().Str("app_env", cfg.AppEnv).Msg("GEMINI_API_KEY is required outside development")
		}
		logger.Warn().Msg("no gemini api key configured, using synthetic redesigns")
		return gemini.NewSyntheticGenerator(logger), gemini.SyntheticValidator{}
	}

	models, err := gemini.NewModels(ctx, gemini.Options{APIKey: apiKey, BaseURL: cfg.GeminiBaseURL})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create gemini client")
	}
	limiter := gemini.NewLimiter(cfg.GeminiRatePerMin)
	return gemini.NewGenerator(models, cfg.GeminiImageModel, limiter, logger),
		gemini.NewValidator(models, cfg.GeminiValidatorModel, limiter, logger)
}

// allowSynthetic reports whether appEnv may run without a model key. Fake
// redesigns would otherwise be charged against real quota.
func allowSynthetic(appEnv string) bool {
	switch strings.ToLower(strings.TrimSpace(appEnv)) {
	case "development", "test":
		return true
	}
	return false
}

func buildTracker(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (redesign.Tracker, func()) {
	if cfg.RedisAddr == "" {
		return session.NewMemoryTracker(session.DefaultTTL), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, tracking requests in memory")
		_ = client.Close()
		return session.NewMemoryTracker(session.DefaultTTL), func() {}
	}
	return session.NewRedisTracker(client, session.DefaultTTL), func() { _ = client.Close() }
}
