package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"inventra-server/internal/auth"
	"inventra-server/internal/service"
	"inventra-server/internal/store"
	"inventra-server/internal/util"

	"github.com/gin-gonic/gin"
)

const tenantContextKey = "tenantContext"

// authMiddleware resolves the bearer token and stashes the tenant context.
// Requests without a valid token never reach a handler.
func authMiddleware(resolver auth.TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing bearer token",
			})
			return
		}

		tenant, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Invalid or expired token",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Authentication failed",
			})
			return
		}

		c.Set(tenantContextKey, tenant)
		c.Request = c.Request.WithContext(auth.WithContext(c.Request.Context(), tenant))
		c.Next()
	}
}

// requireRole rejects callers below the given privilege level
func requireRole(min auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := tenantFrom(c)
		if tenant == nil || !tenant.Role.AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient role",
			})
			return
		}
		c.Next()
	}
}

func tenantFrom(c *gin.Context) *auth.Context {
	if v, ok := c.Get(tenantContextKey); ok {
		if tenant, ok := v.(*auth.Context); ok {
			return tenant
		}
	}
	return nil
}

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validation.Message,
			"field": validation.Field,
		})
		return
	}

	var limit *service.LimitExceededError
	if errors.As(err, &limit) {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":    "Plan limit reached",
			"resource": limit.Key,
			"plan":     limit.Plan,
			"limit":    limit.Limit,
			"current":  limit.Current,
		})
		return
	}

	var feature *service.FeatureUnavailableError
	if errors.As(err, &feature) {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "Feature not available on current plan",
			"feature": feature.Key,
			"plan":    feature.Plan,
		})
		return
	}

	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Message})
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "details": err.Error()})
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, auth.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal error",
			"details": err.Error(),
		})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
