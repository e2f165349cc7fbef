package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr string

	MySQLDSN  string
	MongoURI  string
	MongoDB   string
	RedisAddr string
	RedisPass string

	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTIssuer        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	CookieSecure bool

	LoginAttemptLimit  int
	LoginAttemptWindow time.Duration

	ActivityRetention     time.Duration
	ActivitySweepInterval time.Duration
}

func Load() Config {
	return Config{
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		MySQLDSN:  getenv("MYSQL_DSN", "root:root@tcp(127.0.0.1:3306)/studentms?parseTime=true&multiStatements=true"),
		MongoURI:  getenv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:   getenv("MONGO_DB", "studentms"),
		RedisAddr: getenv("REDIS_ADDR", ""),
		RedisPass: getenv("REDIS_PASSWORD", ""),

		JWTAccessSecret:  getenv("JWT_ACCESS_SECRET", ""),
		JWTRefreshSecret: getenv("JWT_REFRESH_SECRET", ""),
		JWTIssuer:        getenv("JWT_ISSUER", "studentms"),
		AccessTokenTTL:   getenvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  getenvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		CookieSecure: getenvBool("COOKIE_SECURE", false),

		LoginAttemptLimit:  getenvInt("LOGIN_ATTEMPT_LIMIT", 10),
		LoginAttemptWindow: getenvDuration("LOGIN_ATTEMPT_WINDOW", 15*time.Minute),

		ActivityRetention:     getenvDuration("ACTIVITY_RETENTION", 90*24*time.Hour),
		ActivitySweepInterval: getenvDuration("ACTIVITY_SWEEP_INTERVAL", time.Hour),
	}
}

// Validate catches misconfiguration at startup; a missing signing secret must
// never surface as a per-request error.
func (c Config) Validate() error {
	if c.JWTAccessSecret == "" {
		return errors.New("JWT_ACCESS_SECRET is required")
	}
	if c.JWTRefreshSecret == "" {
		return errors.New("JWT_REFRESH_SECRET is required")
	}
	if c.JWTAccessSecret == c.JWTRefreshSecret {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	return nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
