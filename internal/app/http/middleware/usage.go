package middleware

import (
	"context"
	"fmt"
	"net/http"

	domain "nitpickr-api/internal/domain/usage"
	"nitpickr-api/internal/logger"
	"nitpickr-api/internal/usage"

	"github.com/gin-gonic/gin"
)

var usageLog = logger.New("api-usage")

// UsageTracker is the part of the usage service the middlewares need.
type UsageTracker interface {
	CheckUsageLimit(ctx context.Context, entityID, entityType, resourceType string) (usage.CheckResult, error)
	TrackUsage(ctx context.Context, entityID, entityType, resourceType string, incrementBy int64) (int64, error)
}

type UsageOptions struct {
	// ResourceType defaults to the request path.
	ResourceType string
	// JSONErrors selects a JSON 429 body instead of plain text.
	JSONErrors bool
}

func usageEntity(c *gin.Context) (entityID, entityType string) {
	if id, ok := CurrentUserID(c); ok {
		return id, domain.EntityUser
	}
	return "system", domain.EntitySystem
}

func resourceType(c *gin.Context, opts UsageOptions) string {
	if opts.ResourceType != "" {
		return opts.ResourceType
	}
	return c.Request.URL.Path
}

// WithAPIUsage rejects the request with 429 once the caller has used up the
// resource, and counts it otherwise. A failing limit check lets the request
// through.
func WithAPIUsage(svc UsageTracker, opts UsageOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		entityID, entityType := usageEntity(c)
		resource := resourceType(c, opts)

		res, err := svc.CheckUsageLimit(ctx, entityID, entityType, resource)
		if err != nil {
			usageLog.Error("Usage check failed", "entity_id", entityID, "resource", resource, "error", err)
			c.Next()
			return
		}

		if !res.Allowed {
			var limit int64
			if res.Limit != nil {
				limit = *res.Limit
			}
			used := fmt.Sprintf("You've used %d of %d allowed requests.", res.CurrentUsage, limit)
			if opts.JSONErrors {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"error":        "Usage limit exceeded",
					"code":         "QUOTA_EXCEEDED",
					"currentUsage": res.CurrentUsage,
					"limit":        res.Limit,
					"message":      used + " Please upgrade your plan.",
				})
				return
			}
			c.Abort()
			c.String(http.StatusTooManyRequests, "429 - Usage Limit Exceeded.\n%s\nPlease upgrade your plan or contact support.\n", used)
			return
		}

		if _, err := svc.TrackUsage(ctx, entityID, entityType, resource, 1); err != nil {
			usageLog.Warn("Usage tracking failed", "entity_id", entityID, "resource", resource, "error", err)
		}
		c.Next()
	}
}

// WithAPITrackingOnly counts the request without enforcing a limit.
func WithAPITrackingOnly(svc UsageTracker, opts UsageOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		entityID, entityType := usageEntity(c)
		resource := resourceType(c, opts)
		if _, err := svc.TrackUsage(c.Request.Context(), entityID, entityType, resource, 1); err != nil {
			usageLog.Warn("Usage tracking failed", "entity_id", entityID, "resource", resource, "error", err)
		}
		c.Next()
	}
}
