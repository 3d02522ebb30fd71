// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Auth provider kinds accepted in AUTH_PROVIDER.
const (
	AuthProviderLocal  = "local"
	AuthProviderGoTrue = "gotrue"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// SiteURL is the public base URL used to build leader referral links.
	SiteURL string `mapstructure:"SITE_URL"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// AuthProvider selects the authentication provider: "local" (identities table) or "gotrue".
	AuthProvider string `mapstructure:"AUTH_PROVIDER"`
	// GoTrueURL is the base URL of the GoTrue auth API (e.g. https://xyz.supabase.co/auth/v1).
	GoTrueURL string `mapstructure:"GOTRUE_URL"`
	// GoTrueServiceKey is the service-role key used for admin endpoints. Never exposed to clients.
	GoTrueServiceKey string `mapstructure:"GOTRUE_SERVICE_KEY"`
	// GoTrueAnonKey is the public key sent as apikey on user endpoints (signup, token).
	GoTrueAnonKey string `mapstructure:"GOTRUE_ANON_KEY"`

	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "12h").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12. Used by the local provider.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext to the collector even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses. Empty disables orphan events on Kafka.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// OrphanKafkaTopic is the topic carrying orphaned identity events.
	OrphanKafkaTopic string `mapstructure:"ORPHAN_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the orphan reconciliation worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("SITE_URL", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTH_PROVIDER", AuthProviderLocal)
	v.SetDefault("GOTRUE_URL", "")
	v.SetDefault("GOTRUE_SERVICE_KEY", "")
	v.SetDefault("GOTRUE_ANON_KEY", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "juntos-auth")
	v.SetDefault("JWT_AUDIENCE", "juntos-api")
	v.SetDefault("JWT_ACCESS_TTL", "12h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ORPHAN_KAFKA_TOPIC", "juntos-orphan-identities")
	v.SetDefault("KAFKA_GROUP_ID", "juntos-orphan-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	cfg.AuthProvider = strings.ToLower(strings.TrimSpace(cfg.AuthProvider))
	switch cfg.AuthProvider {
	case AuthProviderLocal:
	case AuthProviderGoTrue:
		if cfg.GoTrueURL == "" || cfg.GoTrueServiceKey == "" {
			return nil, errors.New("config: GOTRUE_URL and GOTRUE_SERVICE_KEY are required when AUTH_PROVIDER=gotrue")
		}
	default:
		return nil, errors.New("config: AUTH_PROVIDER must be local or gotrue")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 12h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list means orphan events are only logged.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
