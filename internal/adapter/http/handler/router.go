package handler

import (
	"account-service/internal/adapter/http/middleware"
	redisStore "account-service/internal/adapter/storage/redis"
	"account-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AccountSvc     ports.AccountService
	TransferSvc    ports.TransferService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL and Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	accountHandler := NewAccountHandler(deps.AccountSvc)
	accounts := r.Group("/accounts")
	{
		accounts.POST("", rl("accounts_write"), accountHandler.CreateAccount)
		accounts.GET("/:id", rl("accounts_read"), accountHandler.GetAccount)
		accounts.POST("/:id/status", rl("accounts_status"), accountHandler.ChangeStatus)
	}

	transferHandler := NewTransferHandler(deps.TransferSvc)
	r.POST("/transfer", rl("transfer"), transferHandler.Transfer)

	return r
}
