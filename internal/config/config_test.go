package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hszk-dev/shorturl/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, shortener.DefaultAlphabet, cfg.Alphabet)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=shorturl sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, "urls", cfg.DBTable)
	assert.True(t, cfg.AutoMigrate)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.False(t, cfg.LegacyStatusCodes)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"PORT":                "3000",
		"BASE_URL":            "https://sho.rt/",
		"ALPHABET":            "abc",
		"DB_DRIVER":           "pgx",
		"DATABASE_URL":        "postgres://u:p@db:5432/app",
		"DB_TABLE":            "links",
		"AUTO_MIGRATE":        "false",
		"REDIS_ADDR":          "redis:6379",
		"CACHE_TTL":           "1h",
		"STORE_TIMEOUT":       "500ms",
		"LEGACY_STATUS_CODES": "true",
		"LOG_LEVEL":           "debug",
	}))

	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "https://sho.rt", cfg.BaseURL)
	assert.Equal(t, "abc", cfg.Alphabet)
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "postgres://u:p@db:5432/app", cfg.DatabaseURL)
	assert.Equal(t, "links", cfg.DBTable)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.StoreTimeout)
	assert.True(t, cfg.LegacyStatusCodes)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFromEnv_SQLite(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"DB_DRIVER":   "sqlite3",
		"SQLITE_PATH": "/tmp/links.db",
	}))

	require.NoError(t, err)
	assert.Equal(t, "/tmp/links.db", cfg.DatabaseURL)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"port":          {"PORT": "http"},
		"port range":    {"PORT": "70000"},
		"alphabet":      {"ALPHABET": "aa"},
		"driver":        {"DB_DRIVER": "mysql"},
		"ttl":           {"CACHE_TTL": "forever"},
		"store timeout": {"STORE_TIMEOUT": "0s"},
		"bool":          {"LEGACY_STATUS_CODES": "maybe"},
		"base url":      {"BASE_URL": "not a url"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(envMap(env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_TABLE=from_dotenv\nDB_DRIVER=memory\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DB_TABLE", "")
	os.Unsetenv("DB_TABLE")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "from_dotenv", cfg.DBTable)
	assert.Equal(t, DriverMemory, cfg.DBDriver)
}
