package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/qs-lzh/hotel-management/internal/util"
)

type Config struct {
	Env         string
	Addr        string
	DBDriver    string
	DatabaseDSN string
	CacheURL    string
	MQURL       string

	JWTSecret   string
	TokenTTL    time.Duration
	BcryptCost  int
	RoomLockTTL time.Duration

	CORSOrigins []string

	AdminUsername string
	AdminPassword string
	AdminEmail    string
}

var ErrMissingSecret = errors.New("JWT_SECRET is required outside development")

const devSecret = "dev-only-secret"

func LoadConfig() (*Config, error) {
	if err := util.LoadEnv(); err != nil {
		return nil, err
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Env:           getenv("APP_ENV", "production"),
		Addr:          getenv("ADDR", ":8080"),
		DBDriver:      strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		CacheURL:      os.Getenv("CACHE_URL"),
		MQURL:         os.Getenv("RABBIT_MQ_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		CORSOrigins:   splitList(os.Getenv("CORS_ORIGINS")),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
	}

	var err error
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 5*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RoomLockTTL, err = getDuration("ROOM_LOCK_TTL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 10); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, ErrMissingSecret
		}
		cfg.JWTSecret = devSecret
	}

	switch cfg.DBDriver {
	case "postgres", "mysql":
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for driver %q", cfg.DBDriver)
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == util.EnvDevelopment
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
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
