package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"tycoon_ledger/internal/auth"
	"tycoon_ledger/internal/events"
	"tycoon_ledger/internal/http/handlers"
	"tycoon_ledger/internal/http/middleware"
	"tycoon_ledger/internal/service"
)

// Limits configures request rate limiting.
type Limits struct {
	APIRequests int
	APIWindow   time.Duration
	Writes      int
	WriteWindow time.Duration
}

// Dependencies is everything the routes need.
type Dependencies struct {
	Ledger        *service.LedgerService
	Store         handlers.Pinger
	Issuer        *auth.Issuer
	Hub           *events.Hub
	RateLimiter   *middleware.RateLimiter
	Limits        Limits
	AllowedOrigin string
	Version       string
}

func RegisterRoutes(r *gin.Engine, d Dependencies) {
	h := handlers.NewHandler(d.Ledger)
	healthHandler := handlers.NewHealthHandler(d.Store, d.Version)

	rl := d.RateLimiter
	if rl == nil {
		rl = middleware.NewRateLimiter(nil, nil)
	}
	limits := withDefaultLimits(d.Limits)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(rl.PerIP(limits.APIRequests, limits.APIWindow))

	// Writes are authenticated and limited per address
	jwt := middleware.JWT(d.Issuer)
	writeRL := rl.PerIdentity(limits.Writes, limits.WriteWindow)

	// Configuration and treasury
	v1.POST("/initialize", jwt, writeRL, h.Initialize)
	v1.GET("/config", h.GetConfig)
	v1.POST("/treasury/withdraw", jwt, writeRL, h.WithdrawFunds)

	// Shop catalogue
	v1.GET("/collectibles/:id", h.GetCollectible)
	v1.PUT("/collectibles/:id", jwt, writeRL, h.SetCollectible)
	v1.GET("/cash-tiers/:tier", h.GetCashTier)
	v1.PUT("/cash-tiers/:tier", jwt, writeRL, h.SetCashTier)

	// Players
	v1.POST("/players", jwt, writeRL, h.RegisterPlayer)
	v1.GET("/players/:address/registered", h.IsRegistered)
	v1.POST("/players/:address/voucher", jwt, writeRL, h.MintVoucher)
	v1.GET("/users/:address", h.GetUser)

	// Ledger event stream
	if d.Hub != nil {
		r.GET("/ws/events", events.HandleWS(d.Hub, d.AllowedOrigin))
	}
}

func withDefaultLimits(l Limits) Limits {
	if l.APIRequests <= 0 {
		l.APIRequests = 60
	}
	if l.APIWindow <= 0 {
		l.APIWindow = time.Minute
	}
	if l.Writes <= 0 {
		l.Writes = 10
	}
	if l.WriteWindow <= 0 {
		l.WriteWindow = time.Minute
	}
	return l
}
