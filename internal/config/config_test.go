package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func base() map[string]string {
	return map[string]string{
		"JWT_SECRET":       "secret",
		"TREASURY_ADDRESS": "GTREASURY",
		"TOKEN_API_URL":    "http://gateway",
		"DATABASE_URL":     "postgres://localhost/tycoon",
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(env(base()))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogJSON)
	assert.Equal(t, 60, cfg.APIRateLimit)
	assert.Equal(t, time.Minute, cfg.APIRateWindow)
	assert.Equal(t, 10, cfg.WriteRateLimit)
	assert.Equal(t, time.Minute, cfg.WriteRateWindow)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestParseOverrides(t *testing.T) {
	m := base()
	m["STORE_BACKEND"] = "SQLite"
	m["SQLITE_PATH"] = "/tmp/x.db"
	m["REDIS_DB"] = "3"
	m["API_RATE_LIMIT"] = "5"
	m["WRITE_RATE_WINDOW_SECONDS"] = "10"
	m["LOG_JSON"] = "true"
	m["API_RATE_WINDOW_SECONDS"] = "-4"

	cfg, err := Parse(env(m))
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "/tmp/x.db", cfg.SQLitePath)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 5, cfg.APIRateLimit)
	assert.Equal(t, 10*time.Second, cfg.WriteRateWindow)
	assert.Equal(t, time.Minute, cfg.APIRateWindow)
	assert.True(t, cfg.LogJSON)
}

func TestParseRequired(t *testing.T) {
	for _, key := range []string{"JWT_SECRET", "TREASURY_ADDRESS", "TOKEN_API_URL", "DATABASE_URL"} {
		m := base()
		delete(m, key)
		_, err := Parse(env(m))
		assert.ErrorContains(t, err, key)
	}

	m := base()
	delete(m, "DATABASE_URL")
	m["STORE_BACKEND"] = BackendMemory
	_, err := Parse(env(m))
	assert.NoError(t, err)

	m["STORE_BACKEND"] = "mongo"
	_, err = Parse(env(m))
	assert.ErrorContains(t, err, "STORE_BACKEND")
}
