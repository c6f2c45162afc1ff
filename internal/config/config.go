package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host        string
	Port        string
	Environment string
	PublicURL   string
}

// Address returns host:port
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

// IsDevelopment reports whether the server runs in development mode
func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

// DatabaseConfig selects the database
type DatabaseConfig struct {
	Driver string
	URL    string
}

// MinioConfig holds object storage settings. An empty endpoint selects the
// in-memory store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Config is the full service configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Minio    MinioConfig
	RedisURL string
	APIKeys  *APIKeys

	TranscriptionProvider string
	AnalysisProvider      string

	JWTSecret     string
	WebhookSecret string
	LimitsFile    string

	// DefaultLanguage is sent to the provider when an upload names no
	// language; empty means auto-detect
	DefaultLanguage string

	ReconcileInterval     time.Duration
	ReconcileConcurrency  int
	WatchdogMaxProcessing time.Duration
	LimitsCacheTTL        time.Duration
	SubmitTimeout         time.Duration
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	keys, err := GetAPIKeys()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnvOrDefault("SERVER_HOST", DefaultHost),
			Port:        getEnvOrDefault("SERVER_PORT", DefaultHTTPPort),
			Environment: getEnvOrDefault("ENVIRONMENT", DefaultEnvironment),
			PublicURL:   getEnvOrDefault("PUBLIC_URL", ""),
		},
		Database: DatabaseConfig{
			Driver: getEnvOrDefault("DB_DRIVER", DefaultDBDriver),
			URL:    getEnvOrDefault("DATABASE_URL", ""),
		},
		Minio: MinioConfig{
			Endpoint:  getEnvOrDefault("MINIO_ENDPOINT", ""),
			AccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnvOrDefault("MINIO_BUCKET", DefaultMinioBucket),
			UseSSL:    getEnvOrDefault("MINIO_USE_SSL", "false") == "true",
		},
		RedisURL:              getEnvOrDefault("REDIS_URL", ""),
		APIKeys:               keys,
		TranscriptionProvider: getEnvOrDefault("TRANSCRIPTION_PROVIDER", DefaultTranscriptionProvider),
		AnalysisProvider:      getEnvOrDefault("ANALYSIS_PROVIDER", DefaultAnalysisProvider),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		WebhookSecret:         os.Getenv("WEBHOOK_SECRET"),
		LimitsFile:            getEnvOrDefault("LIMITS_FILE", ""),
		DefaultLanguage:       strings.TrimSpace(os.Getenv("DEFAULT_LANGUAGE")),
	}

	var errs []error
	cfg.ReconcileInterval = durationEnv("RECONCILE_INTERVAL", DefaultReconcileInterval, &errs)
	cfg.WatchdogMaxProcessing = durationEnv("WATCHDOG_MAX_PROCESSING", 0, &errs)
	cfg.LimitsCacheTTL = durationEnv("LIMITS_CACHE_TTL", DefaultLimitsCacheTTL, &errs)
	cfg.SubmitTimeout = durationEnv("SUBMIT_TIMEOUT", DefaultSubmitTimeout, &errs)
	cfg.ReconcileConcurrency = intEnv("RECONCILE_CONCURRENCY", DefaultReconcileConcurrency, &errs)
	if cfg.Database.URL == "" && cfg.Database.Driver == DefaultDBDriver {
		cfg.Database.URL = DefaultSQLiteDSN
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values for consistency
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(ValidatePort(c.Server.Port, "server"))
	add(ValidateOneOf(c.Database.Driver, "DB_DRIVER", "postgres", "sqlite3"))
	if c.Database.URL == "" {
		errs = append(errs, fmt.Errorf("DATABASE_URL is required for driver %s", c.Database.Driver))
	}
	add(ValidateOneOf(c.TranscriptionProvider, "TRANSCRIPTION_PROVIDER", "assemblyai", "openai"))
	add(ValidateOneOf(c.AnalysisProvider, "ANALYSIS_PROVIDER", "gemini", "openai"))
	add(ValidateTimeout(c.ReconcileInterval, "reconcile"))
	add(ValidateTimeout(c.SubmitTimeout, "submit"))
	add(ValidateConcurrency(c.ReconcileConcurrency, "reconcile"))
	if c.WatchdogMaxProcessing < 0 {
		errs = append(errs, fmt.Errorf("WATCHDOG_MAX_PROCESSING cannot be negative"))
	}
	if c.LimitsCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("LIMITS_CACHE_TTL must be positive"))
	}
	if c.Server.PublicURL != "" {
		add(ValidateURL(c.Server.PublicURL, "PUBLIC_URL"))
	}
	if !c.Server.IsDevelopment() && c.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("JWT_SECRET is required outside development"))
	}

	return errors.Join(errs...)
}

// RequireProviderKeys checks the keys of the selected providers are present
func (c *Config) RequireProviderKeys() error {
	var errs []error
	switch c.TranscriptionProvider {
	case "assemblyai":
		if c.APIKeys.AssemblyAI == "" {
			errs = append(errs, fmt.Errorf("ASSEMBLYAI_API_KEY is required for TRANSCRIPTION_PROVIDER=assemblyai"))
		}
	case "openai":
		if c.APIKeys.OpenAI == "" {
			errs = append(errs, fmt.Errorf("OPENAI_API_KEY is required for TRANSCRIPTION_PROVIDER=openai"))
		}
	}
	switch c.AnalysisProvider {
	case "gemini":
		if c.APIKeys.Gemini == "" {
			errs = append(errs, fmt.Errorf("GEMINI_API_KEY is required for ANALYSIS_PROVIDER=gemini"))
		}
	case "openai":
		if c.APIKeys.OpenAI == "" {
			errs = append(errs, fmt.Errorf("OPENAI_API_KEY is required for ANALYSIS_PROVIDER=openai"))
		}
	}
	return errors.Join(errs...)
}

// WebhookURL returns the callback URL providers should notify, or "" when no
// public URL is configured
func (c *Config) WebhookURL() string {
	if c.Server.PublicURL == "" {
		return ""
	}
	return c.Server.PublicURL + "/api/v1/webhooks/assemblyai"
}

func durationEnv(key string, def time.Duration, errs *[]error) time.Duration {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func intEnv(key string, def int, errs *[]error) int {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}
