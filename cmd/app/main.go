package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tycoon_ledger/internal/auth"
	"tycoon_ledger/internal/chain"
	"tycoon_ledger/internal/config"
	"tycoon_ledger/internal/db"
	"tycoon_ledger/internal/domain"
	"tycoon_ledger/internal/events"
	"tycoon_ledger/internal/host"
	httpServer "tycoon_ledger/internal/http"
	"tycoon_ledger/internal/http/middleware"
	"tycoon_ledger/internal/logger"
	"tycoon_ledger/internal/service"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	treasury, err := domain.ParseAddress(cfg.TreasuryAddress)
	if err != nil {
		logger.Fatal("invalid TREASURY_ADDRESS", "error", err)
	}
	issuer, err := auth.NewIssuer(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("jwt issuer", "error", err)
	}

	backend, err := db.OpenBackend(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to open store", "backend", cfg.StoreBackend, "error", err)
	}
	defer backend.Close()

	redisClient := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if redisClient != nil {
		defer redisClient.Close()
	}

	hub := events.NewHub()
	sinks := events.MultiSink{events.LogSink{}, hub}
	if redisClient != nil {
		sinks = append(sinks, events.NewRedisSink(redisClient, cfg.EventsStream))
	}

	ledgerHost := host.New(backend, auth.SignerAuthorizer{}, sinks, host.WithSelf(treasury))
	gateway := chain.NewClient(cfg.TokenAPIURL, cfg.TokenAPIKey)
	ledger := service.NewLedgerService(ledgerHost, gateway, gateway)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORS(cfg.WSAllowedOrigin))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, httpServer.Dependencies{
		Ledger:      ledger,
		Store:       backend,
		Issuer:      issuer,
		Hub:         hub,
		RateLimiter: middleware.NewRateLimiter(redisClient, nil),
		Limits: httpServer.Limits{
			APIRequests: cfg.APIRateLimit,
			APIWindow:   cfg.APIRateWindow,
			Writes:      cfg.WriteRateLimit,
			WriteWindow: cfg.WriteRateWindow,
		},
		AllowedOrigin: cfg.WSAllowedOrigin,
		Version:       version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "store", cfg.StoreBackend, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
