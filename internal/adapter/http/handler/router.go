package handler

import (
	"pesa-gateway/internal/adapter/http/middleware"
	redisStore "pesa-gateway/internal/adapter/storage/redis"
	"pesa-gateway/internal/core/ports"
	"pesa-gateway/pkg/apperror"
	"pesa-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.Authenticator
	ChargeSvc      ports.ChargeService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware. CORS runs first so OPTIONS preflight is answered
	// before auth sees the request.
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS())
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Wrong verb on a known route gets the structured 405 envelope.
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, apperror.ErrMethodNotAllowed())
	})

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

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

	apiAuth := middleware.APIKeyAuth(deps.AuthSvc, deps.Logger)
	chargeHandler := NewChargeHandler(deps.ChargeSvc)

	v1 := r.Group("/v1")
	charge := v1.Group("/charge", apiAuth)
	{
		charge.POST("", rl("charge"), chargeHandler.CreateCharge)
		charge.GET("/:id", rl("status"), chargeHandler.GetCharge)
	}

	return r
}
