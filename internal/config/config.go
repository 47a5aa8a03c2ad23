package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultDatabaseURL   = "file:clinic.db?_pragma=foreign_keys(1)"
	defaultSessionTTL    = "12h"
	defaultSessionMaxAge = "720h"
)

const (
	LedgerBackendSQL   = "sql"
	LedgerBackendRedis = "redis"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	LogLevel    string
	DatabaseURL string

	JWTSecret     string
	JWTIssuer     string
	SessionTTL    time.Duration
	SessionMaxAge time.Duration

	LedgerBackend string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CORSOrigins []string
}

// Load reads the environment, applies defaults and validates the result.
// Callers load any .env file beforehand.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", defaultDatabaseURL)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "clinic")
	v.SetDefault("SESSION_TTL", defaultSessionTTL)
	v.SetDefault("SESSION_MAX_AGE", defaultSessionMaxAge)
	v.SetDefault("LEDGER_BACKEND", LedgerBackendSQL)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	cfg := &Config{
		AppEnv:        strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		HTTPAddr:      strings.TrimSpace(v.GetString("HTTP_ADDR")),
		LogLevel:      strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		DatabaseURL:   strings.TrimSpace(v.GetString("DATABASE_URL")),
		JWTSecret:     strings.TrimSpace(v.GetString("JWT_SECRET")),
		JWTIssuer:     strings.TrimSpace(v.GetString("JWT_ISSUER")),
		LedgerBackend: strings.ToLower(strings.TrimSpace(v.GetString("LEDGER_BACKEND"))),
		RedisAddr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		CORSOrigins:   splitList(v.GetString("CORS_ORIGINS")),
	}

	var err error
	if cfg.SessionTTL, err = parseDuration(v, "SESSION_TTL"); err != nil {
		return nil, err
	}
	if cfg.SessionMaxAge, err = parseDuration(v, "SESSION_MAX_AGE"); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if cfg.SessionMaxAge < cfg.SessionTTL {
		return fmt.Errorf("SESSION_MAX_AGE must not be shorter than SESSION_TTL")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	switch cfg.LedgerBackend {
	case LedgerBackendSQL:
	case LedgerBackendRedis:
		if cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR must be set when LEDGER_BACKEND=redis")
		}
	default:
		return fmt.Errorf("LEDGER_BACKEND must be one of: sql, redis")
	}

	if cfg.IsProdLike() {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if len(cfg.JWTSecret) < 32 {
			return fmt.Errorf("in prod/release JWT_SECRET must be at least 32 bytes")
		}
		for _, origin := range cfg.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("in prod/release CORS_ORIGINS must not contain *")
			}
		}
	}

	return nil
}

func (c *Config) IsProdLike() bool {
	env := strings.ToLower(strings.TrimSpace(c.AppEnv))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDuration(v *viper.Viper, name string) (time.Duration, error) {
	value := strings.TrimSpace(v.GetString(name))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
