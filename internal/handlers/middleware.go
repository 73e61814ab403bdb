package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/metrics"
	"visitation-service/internal/scope"
)

// Actor identity headers, populated by the API gateway after authentication.
const (
	HeaderActorRole = "X-Actor-Role"
	HeaderOfficerID = "X-Officer-ID"
)

const scopeContextKey = "data_scope"

// ScopeMiddleware resolves the caller's jurisdiction scope from the identity
// headers and stores it on the request context. Requests without a role
// still pass through with a scope that matches nothing; downstream queries
// fail closed rather than the middleware rejecting.
func ScopeMiddleware(resolver *scope.Resolver, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("scope_middleware")

	return func(c *gin.Context) {
		actorRole := c.GetHeader(HeaderActorRole)

		var officerID *uuid.UUID
		if raw := c.GetHeader(HeaderOfficerID); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid officer ID header"})
				return
			}
			officerID = &parsed
		}

		s, err := resolver.Resolve(c.Request.Context(), actorRole, officerID)
		if err != nil {
			if errors.Is(err, scope.ErrOfficerProfileNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Officer profile not found"})
				return
			}
			log.Error("Scope resolution failed", zap.String("role", actorRole), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve data scope"})
			return
		}

		c.Set(scopeContextKey, s)
		c.Next()
	}
}

// ScopeFromContext returns the scope placed by ScopeMiddleware. Requests
// that bypassed the middleware get the restricted scope.
func ScopeFromContext(c *gin.Context) scope.Scope {
	if v, ok := c.Get(scopeContextKey); ok {
		if s, ok := v.(scope.Scope); ok {
			return s
		}
	}
	return scope.Restricted()
}

// MetricsMiddleware records request counts and latency per route.
func MetricsMiddleware(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		collector.RecordHTTPRequest(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(started),
		)
	}
}
