package config

import (
	"testing"
	"time"
)

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":18080")
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/testdb?parseTime=true")
	t.Setenv("MONGO_URI", "mongodb://localhost:27018")
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("REFRESH_TOKEN_TTL", "48h")
	t.Setenv("LOGIN_ATTEMPT_WINDOW_SECONDS", "3600")

	cfg := Load()
	if cfg.HTTPAddr != ":18080" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.MySQLDSN != "user:pass@tcp(localhost:3306)/testdb?parseTime=true" {
		t.Fatalf("expected MYSQL_DSN override, got %s", cfg.MySQLDSN)
	}
	if cfg.MongoURI != "mongodb://localhost:27018" {
		t.Fatalf("expected MONGO_URI override, got %s", cfg.MongoURI)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("expected ACCESS_TOKEN_TTL 30m, got %s", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 48*time.Hour {
		t.Fatalf("expected REFRESH_TOKEN_TTL 48h, got %s", cfg.RefreshTokenTTL)
	}
	if cfg.LoginAttemptWindow != time.Hour {
		t.Fatalf("expected LOGIN_ATTEMPT_WINDOW 1h, got %s", cfg.LoginAttemptWindow)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsMissingSecrets(t *testing.T) {
	cfg := Load()
	cfg.JWTAccessSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing access secret to error")
	}
	cfg.JWTAccessSecret = "same"
	cfg.JWTRefreshSecret = "same"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected identical secrets to error")
	}
}
