package admin

import (
	"errors"
	"net/http"
	"time"

	"nitpickr-api/database"
	"nitpickr-api/internal/billing"
	domainbilling "nitpickr-api/internal/domain/billing"
	usagedomain "nitpickr-api/internal/domain/usage"
	"nitpickr-api/internal/domain/users"
	stripeinfra "nitpickr-api/internal/infra/stripe"
	"nitpickr-api/internal/logger"
	"nitpickr-api/internal/usage"

	"github.com/gin-gonic/gin"
)

var log = logger.New("admin")

type Handler struct {
	Usage  *usage.Service
	Syncer *billing.Syncer
}

func NewHandler(u *usage.Service, s *billing.Syncer) *Handler {
	return &Handler{Usage: u, Syncer: s}
}

type AdminUser struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	AuthProvider  string     `json:"auth_provider"`
	EmailVerified *time.Time `json:"email_verified"`
	Locked        bool       `json:"locked"`
	BillingID     *string    `json:"billing_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func ListAllUsers(c *gin.Context) {
	var list []users.User
	if err := database.DB.Order("created_at DESC").Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	out := make([]AdminUser, 0, len(list))
	for _, u := range list {
		out = append(out, AdminUser{
			ID:            u.ID,
			Name:          u.Name,
			Email:         u.Email,
			Role:          u.Role,
			AuthProvider:  u.AuthProvider,
			EmailVerified: u.EmailVerified,
			Locked:        u.IsLocked(),
			BillingID:     u.BillingID,
			CreatedAt:     u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func ListAllSubscriptions(c *gin.Context) {
	var subs []domainbilling.Subscription
	if err := database.DB.Preload("Tier").Order("start_date DESC").Find(&subs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscriptions"})
		return
	}
	c.JSON(http.StatusOK, subs)
}

type usageRequest struct {
	EntityType   string `uri:"entityType" binding:"required"`
	EntityID     string `uri:"entityId" binding:"required"`
	ResourceType string `uri:"resourceType" binding:"required"`
}

func bindUsage(c *gin.Context) (usageRequest, bool) {
	var req usageRequest
	if err := c.ShouldBindUri(&req); err != nil || !usagedomain.ValidEntityType(req.EntityType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid usage key"})
		return req, false
	}
	return req, true
}

// GetUsage GET /admin/usage/:entityType/:entityId/:resourceType
func (h *Handler) GetUsage(c *gin.Context) {
	req, ok := bindUsage(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	n, err := h.Usage.GetUsage(ctx, req.EntityID, req.EntityType, req.ResourceType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load usage"})
		return
	}
	check, err := h.Usage.CheckUsageLimit(ctx, req.EntityID, req.EntityType, req.ResourceType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check usage limit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entityType":   req.EntityType,
		"entityId":     req.EntityID,
		"resourceType": req.ResourceType,
		"usage":        n,
		"limit":        check.Limit,
		"allowed":      check.Allowed,
	})
}

// ResetUsage DELETE /admin/usage/:entityType/:entityId/:resourceType
func (h *Handler) ResetUsage(c *gin.Context) {
	req, ok := bindUsage(c)
	if !ok {
		return
	}
	if err := h.Usage.ResetUsage(c.Request.Context(), req.EntityID, req.EntityType, req.ResourceType); err != nil {
		log.Error("Usage reset failed", "entity_id", req.EntityID, "resource", req.ResourceType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset usage"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Usage reset"})
}

// SyncStripe POST /admin/sync-stripe
func (h *Handler) SyncStripe(c *gin.Context) {
	if !stripeinfra.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe key not configured"})
		return
	}
	stats, err := h.Syncer.Sync(c.Request.Context())
	if errors.Is(err, billing.ErrNoProducts) || errors.Is(err, billing.ErrNoPrices) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Error("Stripe sync failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync from Stripe"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Synced from Stripe", "stats": stats})
}
