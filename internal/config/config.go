package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Inreet-Kaur/capstone/internal/platform/hipaa"
	"github.com/Inreet-Kaur/capstone/internal/platform/webhook"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	LogLevel    string   `mapstructure:"LOG_LEVEL"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	TranscriberURL     string        `mapstructure:"TRANSCRIBER_URL"`
	TranscriberTimeout time.Duration `mapstructure:"TRANSCRIBER_TIMEOUT"`

	AuthIssuer    string `mapstructure:"AUTH_ISSUER"`
	AuthAudience  string `mapstructure:"AUTH_AUDIENCE"`
	JWTSigningKey string `mapstructure:"JWT_SIGNING_KEY"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit      string  `mapstructure:"BODY_LIMIT"`
	AudioBodyLimit string  `mapstructure:"AUDIO_BODY_LIMIT"`

	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	PHIEncryptionKey string `mapstructure:"PHI_ENCRYPTION_KEY"`

	WebhookURLs   []string `mapstructure:"WEBHOOK_URLS"`
	WebhookSecret string   `mapstructure:"WEBHOOK_SECRET"`

	ClassifierTrees            int   `mapstructure:"CLASSIFIER_TREES"`
	ClassifierMaxFeatures      int   `mapstructure:"CLASSIFIER_MAX_FEATURES"`
	ClassifierSeed             int64 `mapstructure:"CLASSIFIER_SEED"`
	ClassifierSyntheticSamples int   `mapstructure:"CLASSIFIER_SYNTHETIC_SAMPLES"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "CORS_ORIGINS",
	"TRANSCRIBER_URL", "TRANSCRIBER_TIMEOUT",
	"AUTH_ISSUER", "AUTH_AUDIENCE", "JWT_SIGNING_KEY",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "BODY_LIMIT", "AUDIO_BODY_LIMIT", "REQUEST_TIMEOUT",
	"PHI_ENCRYPTION_KEY", "WEBHOOK_URLS", "WEBHOOK_SECRET",
	"CLASSIFIER_TREES", "CLASSIFIER_MAX_FEATURES", "CLASSIFIER_SEED", "CLASSIFIER_SYNTHETIC_SAMPLES",
}

// Load reads an optional .env file and the environment. DATABASE_URL may be
// empty, in which case intake records are not persisted.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("TRANSCRIBER_URL", "http://127.0.0.1:5000/voice_to_text")
	v.SetDefault("TRANSCRIBER_TIMEOUT", "30s")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("BODY_LIMIT", "10M")
	v.SetDefault("AUDIO_BODY_LIMIT", "25M")
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("CLASSIFIER_TREES", 100)
	v.SetDefault("CLASSIFIER_MAX_FEATURES", 5000)
	v.SetDefault("CLASSIFIER_SEED", 42)
	v.SetDefault("CLASSIFIER_SYNTHETIC_SAMPLES", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	if cfg.WebhookURLs == nil {
		if urls := v.GetString("WEBHOOK_URLS"); urls != "" {
			cfg.WebhookURLs = strings.Split(urls, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// PersistenceEnabled reports whether a database is configured.
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

// TranscriptEncryptor returns the at-rest encryptor for stored transcripts,
// or nil when PHI_ENCRYPTION_KEY is unset.
func (c *Config) TranscriptEncryptor() (*hipaa.PHIEncryptor, error) {
	if c.PHIEncryptionKey == "" {
		return nil, nil
	}
	key, err := hipaa.ParseKey(c.PHIEncryptionKey)
	if err != nil {
		return nil, err
	}
	return hipaa.NewPHIEncryptor(key)
}

// WebhookEndpoints returns the configured event destinations, all signed
// with WEBHOOK_SECRET.
func (c *Config) WebhookEndpoints() ([]webhook.Endpoint, error) {
	urls := make([]string, 0, len(c.WebhookURLs))
	for _, u := range c.WebhookURLs {
		urls = append(urls, strings.TrimSpace(u))
	}
	return webhook.ParseEndpoints(urls, c.WebhookSecret)
}

// Validate checks that the configuration is safe to run. Outside development
// JWT_SIGNING_KEY must be set so bearer tokens are actually verified.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY must be set when ENV=%q; refusing to start without authentication", c.Env)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.ClassifierTrees < 1 {
		return fmt.Errorf("CLASSIFIER_TREES must be at least 1, got %d", c.ClassifierTrees)
	}
	if c.ClassifierMaxFeatures < 1 {
		return fmt.Errorf("CLASSIFIER_MAX_FEATURES must be at least 1, got %d", c.ClassifierMaxFeatures)
	}
	if c.ClassifierSyntheticSamples < 0 {
		return fmt.Errorf("CLASSIFIER_SYNTHETIC_SAMPLES must not be negative, got %d", c.ClassifierSyntheticSamples)
	}
	if c.TranscriberTimeout <= 0 || c.RequestTimeout <= 0 {
		return fmt.Errorf("TRANSCRIBER_TIMEOUT and REQUEST_TIMEOUT must be positive")
	}
	if _, err := c.TranscriptEncryptor(); err != nil {
		return fmt.Errorf("PHI_ENCRYPTION_KEY: %w", err)
	}
	if _, err := c.WebhookEndpoints(); err != nil {
		return fmt.Errorf("WEBHOOK_URLS: %w", err)
	}
	return nil
}
