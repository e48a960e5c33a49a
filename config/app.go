package config

import "time"

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type App struct {
	Port           string        `env:"APP_PORT" default:"8080"`
	Env            string        `env:"APP_ENV" default:"dev"`
	StoreDriver    string        `env:"STORE_DRIVER" default:"postgres"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	JWTSecret      string        `env:"JWT_SECRET" default:"local_dev_secret"`
	JWTTTL         time.Duration `env:"JWT_TTL_HOURS" default:"24"`
	UploadDir      string        `env:"UPLOAD_DIR" default:"uploads"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" default:"5242880"`
	AuthRateRPS    float64       `env:"AUTH_RATE_LIMIT_RPS" default:"5"`
	AuthRateBurst  int           `env:"AUTH_RATE_LIMIT_BURST" default:"10"`
	LogLevel       string        `env:"LOG_LEVEL" default:"info"`
}
