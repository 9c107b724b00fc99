package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hszk-dev/shorturl/internal/shortener"
	"github.com/joho/godotenv"
)

// DriverMemory selects the in-process store; it keeps nothing across restarts.
const DriverMemory = "memory"

type Config struct {
	Port    int
	BaseURL string // prefix of every short URL, no trailing slash

	Alphabet string

	DBDriver    string // postgres, pgx, sqlite3 or memory
	DatabaseURL string
	DBTable     string
	AutoMigrate bool

	RedisAddr string // empty disables the cache
	CacheTTL  time.Duration

	StoreTimeout      time.Duration
	LegacyStatusCodes bool

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var errs []error

	port, err := strconv.Atoi(env("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: invalid port %q", getenv("PORT")))
	}

	cfg := &Config{
		Port:        port,
		BaseURL:     strings.TrimRight(env("BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		Alphabet:    env("ALPHABET", shortener.DefaultAlphabet),
		DBDriver:    env("DB_DRIVER", "postgres"),
		DBTable:     env("DB_TABLE", "urls"),
		RedisAddr:   env("REDIS_ADDR", ""),
		LogLevel:    env("LOG_LEVEL", "info"),
		LogFormat:   env("LOG_FORMAT", "json"),
		AutoMigrate: true,
	}

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("BASE_URL: %w", err))
	}
	if _, err := shortener.NewCodec(cfg.Alphabet); err != nil {
		errs = append(errs, fmt.Errorf("ALPHABET: %w", err))
	}

	cfg.CacheTTL, err = time.ParseDuration(env("CACHE_TTL", shortener.DefaultCacheTTL.String()))
	if err != nil {
		errs = append(errs, fmt.Errorf("CACHE_TTL: %w", err))
	}
	cfg.StoreTimeout, err = time.ParseDuration(env("STORE_TIMEOUT", shortener.DefaultStoreTimeout.String()))
	if err != nil || cfg.StoreTimeout <= 0 {
		errs = append(errs, fmt.Errorf("STORE_TIMEOUT: invalid duration %q", getenv("STORE_TIMEOUT")))
	}
	cfg.AutoMigrate, err = strconv.ParseBool(env("AUTO_MIGRATE", "true"))
	if err != nil {
		errs = append(errs, fmt.Errorf("AUTO_MIGRATE: %w", err))
	}
	cfg.LegacyStatusCodes, err = strconv.ParseBool(env("LEGACY_STATUS_CODES", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("LEGACY_STATUS_CODES: %w", err))
	}

	switch cfg.DBDriver {
	case DriverMemory:
	case shortener.DialectSQLite.Driver:
		cfg.DatabaseURL = env("SQLITE_PATH", "./data/shorturl.db")
	case shortener.DialectPostgres.Driver, shortener.DialectPgx.Driver:
		cfg.DatabaseURL = env("DATABASE_URL", postgresDSN(env))
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER: unsupported driver %q", cfg.DBDriver))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func postgresDSN(env func(key, def string) string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		env("DB_HOST", "localhost"),
		env("DB_PORT", "5432"),
		env("DB_USER", "postgres"),
		env("DB_PASSWORD", "postgres"),
		env("DB_NAME", "shorturl"),
		env("DB_SSLMODE", "disable"),
	)
}
