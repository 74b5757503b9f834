// Package middleware provides HTTP middleware for the application
package middleware

import (
	"strings"
	"time"

	app_errors "llm-proxy/internal/errors"
	"llm-proxy/internal/response"
	"llm-proxy/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDKey is the context key and header name for request correlation.
const RequestIDKey = "X-Request-ID"

// RequestID attaches a correlation id to every request. Client-provided ids
// are kept so callers can trace a request across services.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDKey)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDKey, requestID)
		c.Next()
	}
}

// GetRequestID returns the correlation id for the current request.
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// Logger creates a request logging middleware.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		method := c.Request.Method
		statusCode := c.Writer.Status()
		requestID := GetRequestID(c)

		// Keep health checks out of the logs unless they fail.
		if isMonitoringEndpoint(path) {
			if statusCode >= 400 {
				logrus.Warnf("%s %s - %d - %v", method, path, statusCode, latency)
			}
			return
		}

		if statusCode >= 500 {
			logrus.Errorf("%s %s - %d - %v - %s", method, path, statusCode, latency, requestID)
		} else if statusCode >= 400 {
			logrus.Warnf("%s %s - %d - %v - %s", method, path, statusCode, latency, requestID)
		} else {
			logrus.Infof("%s %s - %d - %v - %s", method, path, statusCode, latency, requestID)
		}
	}
}

// CORS creates a CORS middleware with efficient preflight handling.
func CORS(config types.CORSConfig) gin.HandlerFunc {
	allowedMethods := strings.Join(config.AllowedMethods, ", ")
	allowedHeaders := strings.Join(config.AllowedHeaders, ", ")

	allowedOriginsMap := make(map[string]bool, len(config.AllowedOrigins))
	hasWildcard := false
	for _, origin := range config.AllowedOrigins {
		if origin == "*" {
			hasWildcard = true
		} else {
			allowedOriginsMap[origin] = true
		}
	}

	return func(c *gin.Context) {
		if !config.Enabled {
			c.Next()
			return
		}

		origin := c.Request.Header.Get("Origin")
		allowed := (hasWildcard && !config.AllowCredentials) || allowedOriginsMap[origin]

		if c.Request.Method == "OPTIONS" {
			if allowed {
				setAllowOriginHeader(c, origin, hasWildcard, config.AllowCredentials)
				c.Header("Access-Control-Allow-Methods", allowedMethods)
				c.Header("Access-Control-Allow-Headers", allowedHeaders)
				if config.AllowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
				c.Header("Access-Control-Max-Age", "86400")
			}
			c.AbortWithStatus(204)
			return
		}

		if allowed {
			setAllowOriginHeader(c, origin, hasWildcard, config.AllowCredentials)
			c.Header("Access-Control-Allow-Methods", allowedMethods)
			c.Header("Access-Control-Allow-Headers", allowedHeaders)
			if config.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
		}

		c.Next()
	}
}

func setAllowOriginHeader(c *gin.Context, origin string, hasWildcard, allowCredentials bool) {
	if hasWildcard && !allowCredentials {
		c.Header("Access-Control-Allow-Origin", "*")
		return
	}
	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Vary", "Origin")
}

// Recovery creates a recovery middleware with custom error handling.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logrus.Errorf("Panic recovered: %v", recovered)
		response.Error(c, app_errors.ErrInternalServer)
		c.Abort()
	})
}

// RateLimiter bounds the number of in-flight requests with a semaphore.
func RateLimiter(config types.PerformanceConfig) gin.HandlerFunc {
	semaphore := make(chan struct{}, config.MaxConcurrentRequests)

	return func(c *gin.Context) {
		select {
		case semaphore <- struct{}{}:
			defer func() { <-semaphore }()
			c.Next()
		default:
			response.Error(c, app_errors.ErrTooManyRequests)
			c.Abort()
		}
	}
}

// ErrorHandler converts errors attached to the gin context into JSON responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err

			if apiErr, ok := err.(*app_errors.APIError); ok {
				response.Error(c, apiErr)
				return
			}

			logrus.Errorf("Unhandled error: %v", err)
			response.Error(c, app_errors.ErrInternalServer)
		}
	}
}

// SecurityHeaders adds security-related headers to every response.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("X-Frame-Options", "SAMEORIGIN")
		c.Next()
	}
}

func isMonitoringEndpoint(path string) bool {
	return path == "/health"
}
