package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearLegacyEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "MONGODB_URI"} {
		t.Setenv(key, "")
	}
}

func loadFromFile(t *testing.T, yaml string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	return finishLoading(v, path)
}

func TestDefaults(t *testing.T) {
	clearLegacyEnv(t)

	cfg, err := finishLoading(newViper(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{ProviderGemini, ProviderOpenAI}, cfg.AI.Order)
	assert.Equal(t, []string{"gemini-2.5-flash-lite", "gemini-2.5-flash", "gemini-2.0-flash-lite"}, cfg.AI.Gemini.Models)
	assert.Equal(t, "gpt-3.5-turbo", cfg.AI.OpenAI.Model)
	assert.Equal(t, 3500, cfg.AI.OpenAI.MaxTokens)
	assert.InDelta(t, 0.2, cfg.AI.OpenAI.Temperature, 1e-6)
	assert.Equal(t, 10*time.Second, cfg.AI.RetryDelay)
	assert.Equal(t, 3, cfg.App.FreeAnalysisLimit)
	assert.Equal(t, "json", cfg.App.DefaultFormat)
	assert.False(t, cfg.Mongo.Enabled)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 2, cfg.Watch.Concurrency)
	assert.Empty(t, cfg.SystemPrompt())
}

func TestConfigFileOverrides(t *testing.T) {
	clearLegacyEnv(t)

	cfg, err := loadFromFile(t, `
ai:
  order: [openai]
  timeout: 30s
  openai:
    model: gpt-4o-mini
    timeout: 5s
    circuitBreaker:
      enabled: false
  gemini:
    models: [gemini-2.5-flash]
app:
  freeAnalysisLimit: 5
mongo:
  enabled: true
  uri: mongodb://db:27017
`)
	require.NoError(t, err)

	assert.Equal(t, []string{ProviderOpenAI}, cfg.AI.Order)
	assert.Equal(t, []string{"gemini-2.5-flash"}, cfg.AI.Gemini.Models)
	assert.Equal(t, 5, cfg.App.FreeAnalysisLimit)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)

	openai := cfg.GetOpenAIConfig()
	assert.Equal(t, "gpt-4o-mini", openai.Model)
	require.NotNil(t, openai.Timeout)
	assert.Equal(t, 5*time.Second, *openai.Timeout)
	require.NotNil(t, openai.CircuitBreaker)
	assert.False(t, openai.CircuitBreaker.Enabled)

	gemini := cfg.GetGeminiConfig()
	require.NotNil(t, gemini.Timeout)
	assert.Equal(t, 30*time.Second, *gemini.Timeout, "falls back to ai.timeout")
	require.NotNil(t, gemini.CircuitBreaker)
	assert.True(t, gemini.CircuitBreaker.Enabled, "falls back to ai.circuitBreaker")
}

func TestEnvironmentOverrides(t *testing.T) {
	clearLegacyEnv(t)
	t.Setenv("RESUMESCAN_AI_ORDER", "openai,gemini")
	t.Setenv("RESUMESCAN_AI_OPENAI_APIKEY", "sk-env")
	t.Setenv("RESUMESCAN_APP_LOGLEVEL", "warn")

	cfg, err := finishLoading(newViper(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{ProviderOpenAI, ProviderGemini}, cfg.AI.Order)
	assert.Equal(t, "sk-env", cfg.AI.OpenAI.APIKey)
	assert.Equal(t, "warn", cfg.App.LogLevel)
}

func TestLegacyEnvironmentFallbacks(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gm-legacy")
	t.Setenv("OPENAI_API_KEY", "sk-legacy")
	t.Setenv("MONGODB_URI", "mongodb://legacy")
	t.Setenv("RESUMESCAN_AI_OPENAI_APIKEY", "sk-prefixed")

	cfg, err := finishLoading(newViper(), "")
	require.NoError(t, err)

	assert.Equal(t, "gm-legacy", cfg.AI.Gemini.APIKey)
	assert.Equal(t, "sk-prefixed", cfg.AI.OpenAI.APIKey, "prefixed variable wins")
	assert.Equal(t, "mongodb://legacy", cfg.Mongo.URI)
}

func TestUnknownProviderRejected(t *testing.T) {
	clearLegacyEnv(t)
	_, err := loadFromFile(t, "ai:\n  order: [gemini, claude]\n")
	assert.ErrorContains(t, err, "unknown AI provider in order: claude")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		v := viper.New()
		setDefaults(v)
		var cfg Config
		require.NoError(t, v.Unmarshal(&cfg))
		return &cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"zero timeout", func(c *Config) { c.AI.Timeout = 0 }, "AI timeout must be positive"},
		{"negative retry delay", func(c *Config) { c.AI.RetryDelay = -time.Second }, "retry delay"},
		{"negative rate", func(c *Config) { c.AI.RequestsPerMinute = -1 }, "requestsPerMinute"},
		{"bad default format", func(c *Config) { c.App.DefaultFormat = "xml" }, "invalid default format"},
		{"negative quota", func(c *Config) { c.App.FreeAnalysisLimit = -1 }, "free analysis limit"},
		{"mongo without uri", func(c *Config) { c.Mongo.Enabled = true; c.Mongo.URI = "" }, "mongo uri"},
		{"cache without addr", func(c *Config) { c.Cache.Enabled = true; c.Cache.Addr = "" }, "cache addr"},
		{"zero watch workers", func(c *Config) { c.Watch.Concurrency = 0 }, "watch concurrency"},
		{"empty order allowed", func(c *Config) { c.AI.Order = nil }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	shared := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(local, []byte("RESUMESCAN_TEST_DOTENV=local\n"), 0600))
	require.NoError(t, os.WriteFile(shared, []byte("RESUMESCAN_TEST_DOTENV=shared\nRESUMESCAN_TEST_DOTENV_ONLY=shared\n"), 0600))
	t.Cleanup(func() {
		_ = os.Unsetenv("RESUMESCAN_TEST_DOTENV")
		_ = os.Unsetenv("RESUMESCAN_TEST_DOTENV_ONLY")
	})

	loadDotEnv(local, filepath.Join(dir, "missing"), shared)

	assert.Equal(t, "local", os.Getenv("RESUMESCAN_TEST_DOTENV"))
	assert.Equal(t, "shared", os.Getenv("RESUMESCAN_TEST_DOTENV_ONLY"))
}
