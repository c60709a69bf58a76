// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres URL (postgres://, pg:, pgsql: accepted). Empty runs on the in-memory store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// MigrateOnStart applies pending migrations before the server starts serving.
	MigrateOnStart bool `mapstructure:"MIGRATE_ON_START"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	JWTIssuer    string `mapstructure:"JWT_ISSUER"`
	JWTAudience  string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the bearer token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// SessionLifetime is the cookie session lifetime (e.g. "24h").
	SessionLifetime     string `mapstructure:"SESSION_LIFETIME"`
	SessionCookieSecure bool   `mapstructure:"SESSION_COOKIE_SECURE"`
	// LoginRatePerMinute limits signup/login/password attempts per client IP; 0 disables.
	LoginRatePerMinute int `mapstructure:"LOGIN_RATE_PER_MINUTE"`
	LoginRateBurst     int `mapstructure:"LOGIN_RATE_BURST"`
	// TrustedProxy honours X-Real-IP/X-Forwarded-For. Only set it behind a proxy that overwrites them.
	TrustedProxy bool `mapstructure:"TRUSTED_PROXY"`
	// BootstrapOwnerEmail is always created as owner at signup. Stored lower-cased.
	BootstrapOwnerEmail string `mapstructure:"BOOTSTRAP_OWNER_EMAIL"`
	// AdminPolicyFile optionally replaces the built-in Rego admin policy.
	AdminPolicyFile string `mapstructure:"ADMIN_POLICY_FILE"`
	// CORSAllowedOrigins is a comma-separated origin list; "*" allows any origin without credentials.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// AuditKafkaBrokers is a comma-separated broker list; when set, audit events are also published to AuditKafkaTopic.
	AuditKafkaBrokers string `mapstructure:"AUDIT_KAFKA_BROKERS"`
	AuditKafkaTopic   string `mapstructure:"AUDIT_KAFKA_TOPIC"`

	// OTLPEndpoint enables trace/metric/log export over OTLP gRPC (e.g. "localhost:4317").
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OTELService  string `mapstructure:"OTEL_SERVICE_NAME"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MIGRATE_ON_START", false)
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "devspaces-auth")
	v.SetDefault("JWT_AUDIENCE", "devspaces-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SESSION_LIFETIME", "24h")
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 20)
	v.SetDefault("LOGIN_RATE_BURST", 5)
	v.SetDefault("TRUSTED_PROXY", false)
	v.SetDefault("BOOTSTRAP_OWNER_EMAIL", "")
	v.SetDefault("ADMIN_POLICY_FILE", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("AUDIT_KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "devspaces.audit")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "devspaces")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.BootstrapOwnerEmail = strings.ToLower(strings.TrimSpace(cfg.BootstrapOwnerEmail))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if (c.JWTPrivateKey == "") != (c.JWTPublicKey == "") {
		return errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set together")
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if d, err := time.ParseDuration(c.JWTAccessTTL); err != nil || d <= 0 {
		return fmt.Errorf("config: JWT_ACCESS_TTL %q is not a positive duration", c.JWTAccessTTL)
	}
	if d, err := time.ParseDuration(c.SessionLifetime); err != nil || d <= 0 {
		return fmt.Errorf("config: SESSION_LIFETIME %q is not a positive duration", c.SessionLifetime)
	}
	if c.LoginRatePerMinute < 0 || c.LoginRateBurst < 0 {
		return errors.New("config: LOGIN_RATE_PER_MINUTE and LOGIN_RATE_BURST must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: LOG_LEVEL %q must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.IsProduction() && !c.SessionCookieSecure {
		return errors.New("config: SESSION_COOKIE_SECURE must be true when APP_ENV=production")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// AuthEnabled reports whether JWT keys are configured for bearer tokens.
func (c *Config) AuthEnabled() bool {
	return c.JWTPrivateKey != "" && c.JWTPublicKey != ""
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// SessionTTL parses SessionLifetime as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionLifetime)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// AllowedOrigins returns the CORS origins from the comma-separated config.
func (c *Config) AllowedOrigins() []string {
	if c == nil {
		return nil
	}
	return splitList(c.CORSAllowedOrigins)
}

// AuditKafkaBrokersList returns the audit stream brokers, or nil when streaming is off.
func (c *Config) AuditKafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.AuditKafkaBrokers)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
