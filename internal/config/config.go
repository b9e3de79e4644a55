package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tycoon_ledger/internal/logger"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	AppPort         string
	StoreBackend    string
	DatabaseURL     string
	SQLitePath      string
	JWTSecret       string
	TreasuryAddress string

	// Token gateway and reward system
	TokenAPIURL string
	TokenAPIKey string

	// Events
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	EventsStream    string
	WSAllowedOrigin string

	LogLevel string
	LogJSON  bool

	// Rate limits
	APIRateLimit    int
	APIRateWindow   time.Duration
	WriteRateLimit  int
	WriteRateWindow time.Duration
}

// Load reads .env (if present) and the process environment. Missing required
// values are fatal.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Parse(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// Parse builds a Config from getenv.
func Parse(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		AppPort:         withDefault(getenv("APP_PORT"), "8080"),
		StoreBackend:    strings.ToLower(withDefault(getenv("STORE_BACKEND"), BackendPostgres)),
		DatabaseURL:     getenv("DATABASE_URL"),
		SQLitePath:      withDefault(getenv("SQLITE_PATH"), "tycoon.db"),
		JWTSecret:       getenv("JWT_SECRET"),
		TreasuryAddress: strings.TrimSpace(getenv("TREASURY_ADDRESS")),
		TokenAPIURL:     getenv("TOKEN_API_URL"),
		TokenAPIKey:     getenv("TOKEN_API_KEY"),
		RedisAddr:       getenv("REDIS_ADDR"),
		RedisPassword:   getenv("REDIS_PASSWORD"),
		EventsStream:    getenv("EVENTS_STREAM"),
		WSAllowedOrigin: getenv("WS_ALLOWED_ORIGIN"),
		LogLevel:        withDefault(getenv("LOG_LEVEL"), "info"),
		LogJSON:         getenv("LOG_JSON") == "true",
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	if cfg.TreasuryAddress == "" {
		return nil, fmt.Errorf("TREASURY_ADDRESS is not set")
	}
	if cfg.TokenAPIURL == "" {
		return nil, fmt.Errorf("TOKEN_API_URL is not set")
	}

	switch cfg.StoreBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	case BackendSQLite, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	cfg.RedisDB = positiveInt(getenv("REDIS_DB"), 0)

	cfg.APIRateLimit = positiveInt(getenv("API_RATE_LIMIT"), 60) // requests per window
	cfg.APIRateWindow = time.Duration(positiveInt(getenv("API_RATE_WINDOW_SECONDS"), 60)) * time.Second
	cfg.WriteRateLimit = positiveInt(getenv("WRITE_RATE_LIMIT"), 10)
	cfg.WriteRateWindow = time.Duration(positiveInt(getenv("WRITE_RATE_WINDOW_SECONDS"), 60)) * time.Second

	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// positiveInt parses v, falling back to def when v is empty or not a positive integer.
func positiveInt(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
