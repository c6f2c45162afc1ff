package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/zap"

	"voicescribe/internal/api/middleware"
	"voicescribe/internal/api/server"
	"voicescribe/internal/api/v1/routes"
	"voicescribe/internal/api/v1/services"
	"voicescribe/internal/app/analysis"
	"voicescribe/internal/app/events"
	"voicescribe/internal/app/gateway"
	"voicescribe/internal/app/gateway/assemblyai"
	openaigw "voicescribe/internal/app/gateway/openai"
	"voicescribe/internal/app/lifecycle"
	"voicescribe/internal/app/logging"
	"voicescribe/internal/app/model"
	"voicescribe/internal/app/quota"
	"voicescribe/internal/app/reconciler"
	"voicescribe/internal/app/repository"
	"voicescribe/internal/app/repository/migrate"
	"voicescribe/internal/app/repository/pg"
	"voicescribe/internal/app/repository/sqlite"
	"voicescribe/internal/app/storage"
	"voicescribe/internal/app/watchdog"
	"voicescribe/internal/config"
)

// devJWTSecret signs tokens in development when JWT_SECRET is unset
const devJWTSecret = "voicescribe-development-secret"

// Version is reported by /health and the version command
var Version = "v0.1.0"

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := logging.NewLogger(cfg.Server.IsDevelopment())
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideHTTPLogger(cfg *config.Config) *slog.Logger {
	return logging.NewHTTPLogger(cfg.Server.IsDevelopment())
}

// OpenDatabase connects to the configured database and applies pending
// migrations
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sql.DB, func(), error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Database.Driver {
	case repository.DriverPostgres:
		db, err = pg.Open(ctx, cfg.Database.URL)
	case repository.DriverSQLite:
		db, err = sqlite.Open(cfg.Database.URL)
	default:
		err = fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, nil, err
	}

	res, err := migrate.Up(db, cfg.Database.Driver)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("database ready",
		zap.String("driver", cfg.Database.Driver),
		zap.Uint("schema_version", res.Version),
		zap.Bool("migrated", res.Changed))

	return db, func() { db.Close() }, nil
}

func provideCommonDB(db *sql.DB, cfg *config.Config) *repository.CommonDB {
	return repository.NewCommonDB(db, cfg.Database.Driver)
}

// LoadBaseLimits returns the limits file's defaults, or the built-in ones
// when no file is configured
func LoadBaseLimits(cfg *config.Config) (model.Limits, error) {
	if cfg.LimitsFile == "" {
		return model.DefaultLimits(), nil
	}
	return config.LoadLimits(cfg.LimitsFile)
}

func provideLimitsStore(cfg *config.Config, settings *repository.SettingsStore, logger *zap.Logger) (*quota.LimitsStore, error) {
	base, err := LoadBaseLimits(cfg)
	if err != nil {
		return nil, err
	}
	return quota.NewLimitsStore(settings, base, cfg.LimitsCacheTTL, logger.Named("limits")), nil
}

func provideLedger(quotas *repository.QuotaStore, jobs *repository.JobStore, limits *quota.LimitsStore, logger *zap.Logger) *quota.Ledger {
	return quota.NewLedger(quotas, jobs, limits, logger.Named("quota"))
}

func provideGateway(cfg *config.Config, logger *zap.Logger) (gateway.TranscriptionGateway, error) {
	defaults := config.GetProviderDefaults(cfg.TranscriptionProvider)
	switch cfg.TranscriptionProvider {
	case "assemblyai":
		return assemblyai.New(assemblyai.Config{
			APIKey:            cfg.APIKeys.AssemblyAI,
			Timeout:           defaults.Timeout,
			MaxRetries:        uint64(defaults.MaxRetries),
			RequestsPerSecond: defaults.RatePerSec,
		}, logger.Named("assemblyai")), nil
	case "openai":
		return openaigw.New(openaigw.Config{
			APIKey:  cfg.APIKeys.OpenAI,
			Timeout: defaults.Timeout,
		}, logger.Named("openai")), nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", cfg.TranscriptionProvider)
	}
}

func provideAnalyzer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (analysis.Analyzer, error) {
	defaults := config.GetProviderDefaults(cfg.AnalysisProvider)
	switch cfg.AnalysisProvider {
	case "gemini":
		return analysis.NewGeminiAnalyzer(ctx, analysis.GeminiConfig{
			APIKey:  cfg.APIKeys.Gemini,
			Timeout: defaults.Timeout,
		}, logger.Named("gemini"))
	case "openai":
		return analysis.NewOpenAIAnalyzer(analysis.OpenAIConfig{
			APIKey:  cfg.APIKeys.OpenAI,
			Timeout: defaults.Timeout,
		}, logger.Named("openai")), nil
	default:
		return nil, fmt.Errorf("unknown analysis provider %q", cfg.AnalysisProvider)
	}
}

func provideBus(ctx context.Context, cfg *config.Config, logger *zap.Logger) (events.Bus, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set, job events stay in process")
		return events.NewMemoryBus(), func() {}, nil
	}
	bus, err := events.NewRedisBus(ctx, cfg.RedisURL, logger.Named("events"))
	if err != nil {
		return nil, nil, err
	}
	return bus, func() { _ = bus.Close() }, nil
}

func provideStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.Minio.Endpoint == "" {
		logger.Warn("MINIO_ENDPOINT not set, uploads are kept in memory and providers cannot fetch them")
		return storage.NewMemoryStore(cfg.Server.PublicURL + "/files"), nil
	}
	return storage.NewMinioStore(ctx, storage.MinioConfig{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		Bucket:    cfg.Minio.Bucket,
		UseSSL:    cfg.Minio.UseSSL,
	}, logger.Named("storage"))
}

func provideController(
	cfg *config.Config,
	jobs *repository.JobStore,
	ledger *quota.Ledger,
	gw gateway.TranscriptionGateway,
	store storage.Store,
	bus events.Bus,
	logger *zap.Logger,
) (*lifecycle.Controller, func()) {
	lc := lifecycle.DefaultConfig()
	lc.SubmitTimeout = cfg.SubmitTimeout
	lc.DefaultLanguage = cfg.DefaultLanguage
	lc.WebhookURL = cfg.WebhookURL()
	lc.WebhookSecret = cfg.WebhookSecret
	ctrl := lifecycle.NewController(jobs, ledger, gw, store, bus, logger.Named("lifecycle"), lc)
	return ctrl, ctrl.Wait
}

func provideReconciler(cfg *config.Config, jobs *repository.JobStore, gw gateway.TranscriptionGateway, ctrl *lifecycle.Controller, logger *zap.Logger) *reconciler.Reconciler {
	return reconciler.New(jobs, gw, ctrl, reconciler.Config{
		Interval:     cfg.ReconcileInterval,
		Concurrency:  cfg.ReconcileConcurrency,
		BatchSize:    100,
		CheckTimeout: 15 * time.Second,
	}, logger.Named("reconciler"))
}

func provideWatchdog(cfg *config.Config, jobs *repository.JobStore, ctrl *lifecycle.Controller, logger *zap.Logger) *watchdog.Watchdog {
	return watchdog.New(jobs, ctrl, watchdog.Config{
		MaxProcessing: cfg.WatchdogMaxProcessing,
		Interval:      time.Minute,
		BatchSize:     100,
	}, logger.Named("watchdog"))
}

func provideRunner(jobs *repository.JobStore, analyzer analysis.Analyzer, bus events.Bus, logger *zap.Logger) *analysis.Runner {
	return analysis.NewRunner(jobs, analyzer, bus, logger.Named("analysis"))
}

func provideAuthenticator(cfg *config.Config, logger *zap.Logger, httpLogger *slog.Logger) *middleware.Authenticator {
	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}
	return middleware.NewAuthenticator(secret, httpLogger)
}

func provideHealth(common *repository.CommonDB, store storage.Store, bus events.Bus) services.HealthService {
	checks := map[string]services.Pinger{"database": common}
	if p, ok := store.(services.Pinger); ok {
		checks["storage"] = p
	}
	if p, ok := bus.(services.Pinger); ok {
		checks["events"] = p
	}
	return services.NewHealthService(checks)
}

func provideContainer(
	cfg *config.Config,
	ctrl *lifecycle.Controller,
	store storage.Store,
	bus events.Bus,
	runner *analysis.Runner,
	ledger *quota.Ledger,
	limits *quota.LimitsStore,
	jobs *repository.JobStore,
	gw gateway.TranscriptionGateway,
	auth *middleware.Authenticator,
	logger *zap.Logger,
	httpLogger *slog.Logger,
) *routes.ServiceContainer {
	return &routes.ServiceContainer{
		TranscriptionService: services.NewTranscriptionService(ctrl, store, bus, logger),
		AnalysisService:      services.NewAnalysisService(ctrl, runner),
		UsageService:         services.NewUsageService(ledger, limits),
		WebhookService:       services.NewWebhookService(jobs, gw, ctrl, logger),
		WebhookSecret:        cfg.WebhookSecret,
		Auth:                 auth.Middleware(),
		Logger:               httpLogger,
	}
}

func provideServerConfig(cfg *config.Config) server.Config {
	sc := server.DefaultConfig()
	sc.Host = cfg.Server.Host
	sc.Port = cfg.Server.Port
	sc.Environment = cfg.Server.Environment
	sc.Version = Version
	return sc
}

func provideServer(sc server.Config, container *routes.ServiceContainer, health services.HealthService, httpLogger *slog.Logger) *server.Server {
	return server.NewServer(sc, container, health, httpLogger)
}
