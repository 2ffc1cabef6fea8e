package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Provider names accepted in ai.order
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all application configuration
// API Key Precedence Order:
// 1. Vault (if configured)
// 2. Config file values
// 3. Environment variables (RESUMESCAN_AI_GEMINI_APIKEY, then legacy GEMINI_API_KEY)
// 4. Default values
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Mongo         MongoConfig         `mapstructure:"mongo"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Watch         WatchConfig         `mapstructure:"watch"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds the provider chain configuration. Providers are tried in Order.
type AIConfig struct {
	Order             []string             `mapstructure:"order"`
	Timeout           time.Duration        `mapstructure:"timeout"`
	RetryDelay        time.Duration        `mapstructure:"retryDelay"`
	RequestsPerMinute int                  `mapstructure:"requestsPerMinute"`
	Burst             int                  `mapstructure:"burst"`
	UseSystemPrompts  bool                 `mapstructure:"useSystemPrompts"`
	Prompts           PromptConfig         `mapstructure:"prompts"`
	CircuitBreaker    CircuitBreakerConfig `mapstructure:"circuitBreaker"`
	Gemini            GeminiConfig         `mapstructure:"gemini"`
	OpenAI            OpenAIConfig         `mapstructure:"openai"`
}

// GeminiConfig configures the Gemini backend. Each model becomes its own link in the chain.
type GeminiConfig struct {
	APIKey         string                `mapstructure:"apiKey"`
	Models         []string              `mapstructure:"models"`
	Timeout        *time.Duration        `mapstructure:"timeout"`
	CircuitBreaker *CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// OpenAIConfig configures the OpenAI fallback backend
type OpenAIConfig struct {
	APIKey         string                `mapstructure:"apiKey"`
	Model          string                `mapstructure:"model"`
	BaseURL        string                `mapstructure:"baseURL"`
	Temperature    float32               `mapstructure:"temperature"`
	MaxTokens      int                   `mapstructure:"maxTokens"`
	Timeout        *time.Duration        `mapstructure:"timeout"`
	CircuitBreaker *CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Min requests before failure ratio applies
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio that trips the breaker
}

// PromptConfig overrides the built-in system prompt, inline or from a file
type PromptConfig struct {
	System     string `mapstructure:"system"`
	SystemFile string `mapstructure:"systemFile"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel          string   `mapstructure:"logLevel"`
	DefaultFormat     string   `mapstructure:"defaultFormat"`
	SupportedFormats  []string `mapstructure:"supportedFormats"`
	MaxFileSize       int64    `mapstructure:"maxFileSize"`
	FreeAnalysisLimit int      `mapstructure:"freeAnalysisLimit"`
}

// MongoConfig holds analysis history storage configuration
type MongoConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds the Redis result cache configuration
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// WatchConfig holds configuration for the directory watcher
type WatchConfig struct {
	Debounce    time.Duration `mapstructure:"debounce"`
	Concurrency int           `mapstructure:"concurrency"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

type ConsoleConfig struct {
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig toggles groups of application metrics
type CustomMetricsConfig struct {
	AIOperations    AIOperationsMetricsConfig `mapstructure:"aiOperations"`
	BusinessMetrics BusinessMetricsConfig     `mapstructure:"businessMetrics"`
}

type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
}

type BusinessMetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from .env files, environment variables and a config file
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	loadDotEnv(".env.local", ".env")

	v := newViper()
	log.Println("[CONFIG] Configured environment variable handling with prefix 'RESUMESCAN'")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/resumescan/")
	v.AddConfigPath("$HOME/.resumescan")
	v.AddConfigPath(".")
	log.Println("[CONFIG] Configured config file search paths: /etc/resumescan/, $HOME/.resumescan, .")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	return finishLoading(v, configFileUsed)
}

// loadDotEnv loads the given files in order. Variables already set win, so
// earlier files take precedence over later ones.
func loadDotEnv(files ...string) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Printf("[CONFIG] Ignoring unreadable env file %s: %v", file, err)
			}
			continue
		}
		log.Printf("[CONFIG] Loaded environment from %s", file)
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("RESUMESCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func finishLoading(v *viper.Viper, configFileUsed string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.loadPromptFiles(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.order", []string{ProviderGemini, ProviderOpenAI})
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.retryDelay", 10*time.Second)
	v.SetDefault("ai.requestsPerMinute", 0) // unlimited
	v.SetDefault("ai.burst", 1)
	v.SetDefault("ai.useSystemPrompts", true)
	v.SetDefault("ai.prompts.system", "")
	v.SetDefault("ai.prompts.systemFile", "")

	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	// Cheaper models first; quota differs per model so each is tried in turn.
	v.SetDefault("ai.gemini.apiKey", "")
	v.SetDefault("ai.gemini.models", []string{"gemini-2.5-flash-lite", "gemini-2.5-flash", "gemini-2.0-flash-lite"})

	v.SetDefault("ai.openai.apiKey", "")
	v.SetDefault("ai.openai.model", "gpt-3.5-turbo")
	v.SetDefault("ai.openai.baseURL", "")
	v.SetDefault("ai.openai.temperature", 0.2)
	v.SetDefault("ai.openai.maxTokens", 3500)

	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 5*1024*1024)
	v.SetDefault("app.freeAnalysisLimit", 3)

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.openaiKey", "")

	v.SetDefault("mongo.enabled", false)
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "resumescan")
	v.SetDefault("mongo.timeout", 10*time.Second)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("watch.debounce", 500*time.Millisecond)
	v.SetDefault("watch.concurrency", 2)

	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "resumescan")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}

// Validate checks if the configuration is valid. Missing API keys are not an
// error here: the provider chain is built from whichever keys are present.
func (c *Config) Validate() error {
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}
	if c.AI.RetryDelay < 0 {
		return fmt.Errorf("AI retry delay cannot be negative")
	}
	if c.AI.RequestsPerMinute < 0 {
		return fmt.Errorf("AI requestsPerMinute cannot be negative")
	}
	for _, name := range c.AI.Order {
		if name != ProviderGemini && name != ProviderOpenAI {
			return fmt.Errorf("unknown AI provider in order: %s (must be '%s' or '%s')", name, ProviderGemini, ProviderOpenAI)
		}
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}
	if c.App.FreeAnalysisLimit < 0 {
		return fmt.Errorf("free analysis limit cannot be negative")
	}

	if c.Mongo.Enabled && c.Mongo.URI == "" {
		return fmt.Errorf("mongo uri is required when mongo is enabled")
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("cache addr is required when cache is enabled")
	}
	if c.Watch.Concurrency < 1 {
		return fmt.Errorf("watch concurrency must be at least 1")
	}

	return nil
}

// GetGeminiConfig returns the Gemini configuration with global fallbacks applied
func (c *Config) GetGeminiConfig() GeminiConfig {
	cfg := c.AI.Gemini
	cfg.Timeout, cfg.CircuitBreaker = c.providerDefaults(cfg.Timeout, cfg.CircuitBreaker)
	return cfg
}

// GetOpenAIConfig returns the OpenAI configuration with global fallbacks applied
func (c *Config) GetOpenAIConfig() OpenAIConfig {
	cfg := c.AI.OpenAI
	cfg.Timeout, cfg.CircuitBreaker = c.providerDefaults(cfg.Timeout, cfg.CircuitBreaker)
	return cfg
}

func (c *Config) providerDefaults(timeout *time.Duration, cb *CircuitBreakerConfig) (*time.Duration, *CircuitBreakerConfig) {
	if timeout == nil {
		t := c.AI.Timeout
		timeout = &t
	}
	if cb == nil {
		global := c.AI.CircuitBreaker
		cb = &global
	}
	return timeout, cb
}

// applyFallbacks applies legacy environment variable fallbacks
func (c *Config) applyFallbacks() {
	if c.AI.Gemini.APIKey == "" {
		c.AI.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.AI.OpenAI.APIKey == "" {
		c.AI.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = os.Getenv("MONGODB_URI")
	}

	if c.Observability.ServiceInstance == "" {
		if hostname, err := os.Hostname(); err == nil {
			c.Observability.ServiceInstance = fmt.Sprintf("%s-%s", c.Observability.ServiceName, hostname)
		} else {
			c.Observability.ServiceInstance = fmt.Sprintf("%s-1", c.Observability.ServiceName)
		}
	}

	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"RESUMESCAN_AI_GEMINI_APIKEY",
		"RESUMESCAN_AI_OPENAI_APIKEY",
		"RESUMESCAN_AI_ORDER",
		"RESUMESCAN_APP_LOGLEVEL",
		"RESUMESCAN_MONGO_ENABLED",
		"RESUMESCAN_CACHE_ENABLED",
		"RESUMESCAN_VAULT_ENABLED",
		"GEMINI_API_KEY",
		"OPENAI_API_KEY",
		"MONGODB_URI",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		hasEnvVars = true
		lower := strings.ToLower(envVar)
		if strings.Contains(lower, "key") || strings.Contains(lower, "uri") {
			log.Printf("[CONFIG]   %s=***MASKED***", envVar)
		} else {
			log.Printf("[CONFIG]   %s=%s", envVar, value)
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] Provider order: %v", c.AI.Order)
	log.Printf("[CONFIG] Gemini models: %v", c.AI.Gemini.Models)
	log.Printf("[CONFIG] Gemini API Key: %s", configuredLabel(c.AI.Gemini.APIKey))
	log.Printf("[CONFIG] OpenAI model: %s", c.AI.OpenAI.Model)
	log.Printf("[CONFIG] OpenAI API Key: %s", configuredLabel(c.AI.OpenAI.APIKey))
	log.Printf("[CONFIG] Rate-limit retry delay: %s", c.AI.RetryDelay)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Mongo Enabled: %t", c.Mongo.Enabled)
	log.Printf("[CONFIG] Cache Enabled: %t", c.Cache.Enabled)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}

func configuredLabel(secret string) string {
	if secret == "" {
		return "***NOT SET***"
	}
	return "***CONFIGURED***"
}
