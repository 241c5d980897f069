package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/findadoctor/api/internal/config"
	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/pkg/auth"
	"github.com/findadoctor/api/pkg/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	contextKeyClaims = "claims"
	contextKeyUser   = "user"
)

// Authenticate verifies the session cookie and re-loads the user so
// bans and deletions take effect at the next request, not at token
// expiry.
func Authenticate(tokens *auth.TokenManager, users domain.UserRepository, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(cookieName)
		if err != nil || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "authentication required",
				Code:  "UNAUTHENTICATED",
			})
			return
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "session is invalid or expired",
				Code:  "SESSION_INVALID",
			})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, domain.ErrUserNotFound) {
			// A token for a deleted account is just a stale credential.
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "authentication required",
				Code:  "UNAUTHENTICATED",
			})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Error: "internal server error",
				Code:  "INTERNAL",
			})
			return
		}
		if !user.CanAuthenticate() {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Error: "account is not allowed to authenticate",
				Code:  "BANNED",
			})
			return
		}

		// Role comes from the live record, not the token, so role
		// changes don't need a re-login to take effect.
		claims.Role = user.Role
		c.Set(contextKeyClaims, claims)
		c.Set(contextKeyUser, user)
		c.Next()
	}
}

// RequireRole gates a route group to the given roles. Must run after
// Authenticate.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := claimsFromContext(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "authentication required",
				Code:  "UNAUTHENTICATED",
			})
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Error: "access denied",
				Code:  "FORBIDDEN",
			})
			return
		}
		c.Next()
	}
}

// RequireActive rejects doctor and staff accounts that have not been
// authorized yet. Must run after Authenticate.
func RequireActive() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(contextKeyUser)
		user, _ := v.(*domain.User)
		if !ok || user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "authentication required",
				Code:  "UNAUTHENTICATED",
			})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Error: "account pending authorization",
				Code:  "INACTIVE",
			})
			return
		}
		c.Next()
	}
}

// CORS allows the single configured frontend origin with credentials,
// which the cookie session requires.
func CORS(frontendURL string, cfg config.CORSConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		AllowCredentials: true,
		MaxAge:           cfg.MaxAge,
	})
}

// Metrics records request counts, latency, and in-flight gauge.
func Metrics(m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.InFlightGauge.Inc()
		start := time.Now()

		c.Next()

		m.InFlightGauge.Dec()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
	}
}

// RequestLogger emits one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request", fields...)
		} else {
			log.Info("request", fields...)
		}
	}
}
