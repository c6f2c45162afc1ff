package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicescribe/internal/app/model"
)

func TestGetAPIKeys(t *testing.T) {
	tests := []struct {
		name        string
		assemblyAI  string
		openAI      string
		gemini      string
		expectError bool
	}{
		{name: "no keys", expectError: false},
		{name: "valid openai key", openAI: "sk-1234567890abcdefghijklmnop", expectError: false},
		{name: "invalid openai prefix", openAI: "pk-1234567890abcdefghijklmnop", expectError: true},
		{name: "short openai key", openAI: "sk-123", expectError: true},
		{name: "valid gemini key", gemini: "AIzaSyA1234567890abcdefghijklmnopq", expectError: false},
		{name: "invalid gemini prefix", gemini: "XIzaSyA1234567890abcdefghijklmnopq", expectError: true},
		{name: "valid assemblyai key", assemblyAI: "0123456789abcdef0123456789abcdef", expectError: false},
		{name: "short assemblyai key", assemblyAI: "abc", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ASSEMBLYAI_API_KEY", tt.assemblyAI)
			t.Setenv("OPENAI_API_KEY", tt.openAI)
			t.Setenv("GEMINI_API_KEY", tt.gemini)

			keys, err := GetAPIKeys()
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.openAI, keys.OpenAI)
			assert.Equal(t, tt.gemini, keys.Gemini)
			assert.Equal(t, tt.assemblyAI, keys.AssemblyAI)
		})
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	path, err := LoadEnv()
	require.NoError(t, err)
	assert.Empty(t, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("VOICESCRIBE_TEST_VAR=from-file\n"), 0o600))
	t.Setenv("VOICESCRIBE_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("VOICESCRIBE_TEST_VAR"))

	path, err = LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, ".env", path)
	assert.Equal(t, "from-file", os.Getenv("VOICESCRIBE_TEST_VAR"))
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_HOST", "SERVER_PORT", "ENVIRONMENT", "PUBLIC_URL", "DB_DRIVER", "DATABASE_URL",
		"MINIO_ENDPOINT", "REDIS_URL", "TRANSCRIPTION_PROVIDER", "ANALYSIS_PROVIDER",
		"RECONCILE_INTERVAL", "WATCHDOG_MAX_PROCESSING", "LIMITS_CACHE_TTL", "SUBMIT_TIMEOUT",
		"RECONCILE_CONCURRENCY", "ASSEMBLYAI_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY",
		"DEFAULT_LANGUAGE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8081", cfg.Server.Address())
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, DefaultSQLiteDSN, cfg.Database.URL)
	assert.Equal(t, "assemblyai", cfg.TranscriptionProvider)
	assert.Equal(t, "gemini", cfg.AnalysisProvider)
	assert.Equal(t, 5*time.Second, cfg.ReconcileInterval)
	assert.Equal(t, time.Duration(0), cfg.WatchdogMaxProcessing)
	assert.Equal(t, 30*time.Second, cfg.LimitsCacheTTL)
	assert.Empty(t, cfg.WebhookURL())
	assert.Empty(t, cfg.DefaultLanguage, "providers detect the language")

	err = cfg.RequireProviderKeys()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASSEMBLYAI_API_KEY")
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/voicescribe")
	t.Setenv("PUBLIC_URL", "https://scribe.example.com")
	t.Setenv("RECONCILE_INTERVAL", "10s")
	t.Setenv("WATCHDOG_MAX_PROCESSING", "2h")
	t.Setenv("TRANSCRIPTION_PROVIDER", "openai")
	t.Setenv("ANALYSIS_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-1234567890abcdefghijklmnop")
	t.Setenv("DEFAULT_LANGUAGE", " zh ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "zh", cfg.DefaultLanguage)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.ReconcileInterval)
	assert.Equal(t, 2*time.Hour, cfg.WatchdogMaxProcessing)
	assert.Equal(t, "https://scribe.example.com/api/v1/webhooks/assemblyai", cfg.WebhookURL())
	assert.NoError(t, cfg.RequireProviderKeys())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad port", key: "SERVER_PORT", value: "http"},
		{name: "bad driver", key: "DB_DRIVER", value: "mysql"},
		{name: "bad provider", key: "TRANSCRIPTION_PROVIDER", value: "whisper_cpp"},
		{name: "bad duration", key: "RECONCILE_INTERVAL", value: "soon"},
		{name: "negative watchdog", key: "WATCHDOG_MAX_PROCESSING", value: "-1m"},
		{name: "bad concurrency", key: "RECONCILE_CONCURRENCY", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "development")
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadLimits(t *testing.T) {
	limits, err := LoadLimits("")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultLimits(), limits)

	dir := t.TempDir()
	path := filepath.Join(dir, "limits.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaults:\n  daily_transcription_count: 3\n  max_file_size_mb: 0\n"), 0o600))

	limits, err = LoadLimits(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), limits.DailyTranscriptionCount)
	assert.Equal(t, int64(0), limits.MaxFileSizeMB)
	assert.Equal(t, int64(300), limits.WeeklyAudioMinutes)

	require.NoError(t, os.WriteFile(path, []byte("defaults:\n  weekly_audio_minutes: -5\n"), 0o600))
	_, err = LoadLimits(path)
	assert.Error(t, err)

	_, err = LoadLimits(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadLimitsShippedFile(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)

	limits, err := LoadLimits(filepath.Join(root, "configs", "limits.yaml"))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultLimits(), limits)
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidatePort("8081", "http"))
	assert.Error(t, ValidatePort("70000", "http"))
	assert.Error(t, ValidatePort("", "http"))
	assert.NoError(t, ValidateURL("https://api.assemblyai.com", "AssemblyAI"))
	assert.Error(t, ValidateURL("ftp://x", "AssemblyAI"))
	assert.Error(t, ValidateTimeout(time.Hour, "submit"))
	assert.Error(t, ValidateConcurrency(101, "reconcile"))
	assert.NoError(t, ValidateOneOf("gemini", "ANALYSIS_PROVIDER", "gemini", "openai"))
	assert.Equal(t, 3, GetProviderDefaults("assemblyai").MaxRetries)
}
