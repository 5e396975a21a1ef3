package middleware

import (
	"net/http"
	"strings"
	"time"

	"pesa-gateway/internal/core/ports"
	"pesa-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// HeaderAPIKey carries the merchant credential. Bearer tokens on the
	// Authorization header are accepted as an alternative.
	HeaderAPIKey = "X-API-Key"

	// Context keys
	CtxAccount = "account"
	CtxMode    = "mode"
)

// APIKeyAuth resolves the API credential to an account and operating
// mode. The mode follows from which credential class matched; handlers
// read both from the context.
func APIKeyAuth(auth ports.Authenticator, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := c.GetHeader(HeaderAPIKey)
		if credential == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				credential = strings.TrimPrefix(h, "Bearer ")
			}
		}

		account, mode, err := auth.Authenticate(c.Request.Context(), credential)
		if err != nil {
			response.AbortError(c, err)
			return
		}

		c.Set(CtxAccount, account)
		c.Set(CtxMode, mode)
		c.Next()
	}
}

// CORS applies the permissive browser policy and short-circuits OPTIONS
// preflight before any auth runs.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type, x-api-key")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.String(http.StatusOK, "ok")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.ErrorBody{
					Success: false,
					Error:   "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// MaxBodySize rejects request bodies larger than limit bytes.
func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
