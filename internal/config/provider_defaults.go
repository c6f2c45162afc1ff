package config

import "time"

// Default configuration constants
const (
	DefaultHTTPPort    = "8081"
	DefaultHost        = "0.0.0.0"
	DefaultEnvironment = "development"

	DefaultDBDriver  = "sqlite3"
	DefaultSQLiteDSN = "./data/voicescribe.db"

	DefaultMinioEndpoint = "localhost:9000"
	DefaultMinioBucket   = "voicescribe-audio"

	DefaultTranscriptionProvider = "assemblyai"
	DefaultAnalysisProvider      = "gemini"

	DefaultReconcileInterval    = 5 * time.Second
	DefaultReconcileConcurrency = 4
	DefaultLimitsCacheTTL       = 30 * time.Second
	DefaultSubmitTimeout        = 30 * time.Second
	DefaultAnalysisTimeout      = 2 * time.Minute
	DefaultTokenTTL             = 24 * time.Hour
)

// ProviderDefaults holds the default client settings of a provider
type ProviderDefaults struct {
	Timeout    time.Duration
	MaxRetries int
	RatePerSec float64
}

// GetProviderDefaults returns default configuration for a given provider
func GetProviderDefaults(provider string) ProviderDefaults {
	switch provider {
	case "assemblyai":
		return ProviderDefaults{Timeout: 30 * time.Second, MaxRetries: 3, RatePerSec: 5}
	case "openai":
		return ProviderDefaults{Timeout: 10 * time.Minute, MaxRetries: 3, RatePerSec: 2}
	case "gemini":
		return ProviderDefaults{Timeout: DefaultAnalysisTimeout, MaxRetries: 2, RatePerSec: 2}
	default:
		return ProviderDefaults{Timeout: 60 * time.Second, MaxRetries: 2, RatePerSec: 1}
	}
}
