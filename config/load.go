package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real env vars win.
func Load() (App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "err", err)
	}

	cfg := App{
		Port:           getenv("APP_PORT", "8080"),
		Env:            getenv("APP_ENV", "dev"),
		StoreDriver:    getenv("STORE_DRIVER", DriverPostgres),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      getenv("JWT_SECRET", "local_dev_secret"),
		JWTTTL:         time.Duration(getint("JWT_TTL_HOURS", 24)) * time.Hour,
		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: int64(getint("MAX_UPLOAD_BYTES", 5<<20)),
		AuthRateRPS:    getfloat("AUTH_RATE_LIMIT_RPS", 5),
		AuthRateBurst:  getint("AUTH_RATE_LIMIT_BURST", 10),
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}
	// PORT is set by most hosting platforms and overrides APP_PORT.
	if p := os.Getenv("PORT"); p != "" {
		cfg.Port = p
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return cfg, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case DriverMemory:
	default:
		return cfg, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.Env != "dev" && cfg.JWTSecret == "local_dev_secret" {
		slog.Warn("JWT_SECRET not set outside dev; using the built-in development secret")
	}
	return cfg, nil
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func (a App) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(a.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid env value, using default", "key", k, "value", v, "default", def)
		return def
	}
	return n
}

func getfloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		slog.Warn("invalid env value, using default", "key", k, "value", v, "default", def)
		return def
	}
	return f
}
