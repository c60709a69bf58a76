package config

import (
	"os"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.DatabaseURL != "" || cfg.MigrateOnStart {
		t.Errorf("database defaults = %q/%v", cfg.DatabaseURL, cfg.MigrateOnStart)
	}
	if cfg.JWTIssuer != "devspaces-auth" || cfg.JWTAudience != "devspaces-api" {
		t.Errorf("JWT iss/aud = %q/%q", cfg.JWTIssuer, cfg.JWTAudience)
	}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Errorf("AccessTTL = %v", cfg.AccessTTL())
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL())
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.LogLevel != "info" || cfg.OTELService != "devspaces" {
		t.Errorf("LogLevel/OTELService = %q/%q", cfg.LogLevel, cfg.OTELService)
	}
	if cfg.AuthEnabled() {
		t.Error("AuthEnabled should be false without keys")
	}
	if got := cfg.AllowedOrigins(); !reflect.DeepEqual(got, []string{"*"}) {
		t.Errorf("AllowedOrigins = %v", got)
	}
	if cfg.LoginRatePerMinute != 20 || cfg.LoginRateBurst != 5 {
		t.Errorf("login rate = %d/%d", cfg.LoginRatePerMinute, cfg.LoginRateBurst)
	}
	if cfg.AuditKafkaBrokersList() != nil || cfg.AuditKafkaTopic != "devspaces.audit" {
		t.Errorf("audit stream defaults = %v/%q", cfg.AuditKafkaBrokersList(), cfg.AuditKafkaTopic)
	}
	if cfg.TrustedProxy {
		t.Error("TrustedProxy should default to false")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("MIGRATE_ON_START", "true")
	os.Setenv("BOOTSTRAP_OWNER_EMAIL", "  Boss@Example.COM ")
	os.Setenv("LOG_LEVEL", "DEBUG")
	os.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	os.Setenv("AUDIT_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	os.Setenv("TRUSTED_PROXY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.JWTIssuer != "custom-issuer" || cfg.BcryptCost != 14 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if !cfg.MigrateOnStart {
		t.Error("MigrateOnStart = false")
	}
	if cfg.BootstrapOwnerEmail != "boss@example.com" {
		t.Errorf("BootstrapOwnerEmail = %q", cfg.BootstrapOwnerEmail)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if got := cfg.AllowedOrigins(); !reflect.DeepEqual(got, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("AllowedOrigins = %v", got)
	}
	if got := cfg.AuditKafkaBrokersList(); !reflect.DeepEqual(got, []string{"kafka-1:9092", "kafka-2:9092"}) {
		t.Errorf("AuditKafkaBrokersList = %v", got)
	}
	if !cfg.TrustedProxy {
		t.Error("TrustedProxy = false")
	}
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"bcrypt too low", map[string]string{"BCRYPT_COST": "3"}},
		{"bcrypt too high", map[string]string{"BCRYPT_COST": "32"}},
		{"only private key", map[string]string{"JWT_PRIVATE_KEY": "x"}},
		{"only public key", map[string]string{"JWT_PUBLIC_KEY": "x"}},
		{"bad access ttl", map[string]string{"JWT_ACCESS_TTL": "soon"}},
		{"negative session lifetime", map[string]string{"SESSION_LIFETIME": "-1h"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"negative login rate", map[string]string{"LOGIN_RATE_PER_MINUTE": "-1"}},
		{"insecure cookie in production", map[string]string{"APP_ENV": "production"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tc.env {
				os.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad_ProductionWithSecureCookie(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")
	os.Setenv("SESSION_COOKIE_SECURE", "true")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsProduction() || !cfg.SessionCookieSecure {
		t.Errorf("production config = %+v", cfg)
	}
}

func TestTTLFallbacks(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "invalid", SessionLifetime: "0s"}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Errorf("AccessTTL = %v", cfg.AccessTTL())
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL())
	}
	cfg = &Config{JWTAccessTTL: "1h", SessionLifetime: "30m"}
	if cfg.AccessTTL() != time.Hour || cfg.SessionTTL() != 30*time.Minute {
		t.Errorf("parsed TTLs = %v/%v", cfg.AccessTTL(), cfg.SessionTTL())
	}
}
