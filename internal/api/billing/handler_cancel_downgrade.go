package billing

import (
	"errors"
	"net/http"

	"nitpickr-api/database"
	"nitpickr-api/internal/billing"
	domain "nitpickr-api/internal/domain/billing"

	"github.com/gin-gonic/gin"
	schedules "github.com/stripe/stripe-go/v75/subscriptionschedule"
	"gorm.io/gorm"
)

// CancelDowngrade POST /payments/cancel-downgrade releases the schedule so the
// subscription continues on the current price.
func (h *Handler) CancelDowngrade(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	sub, err := billing.ActiveForUser(database.DB, user.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if sub == nil || sub.StripeScheduleID == nil || *sub.StripeScheduleID == "" || sub.PendingPriceID == nil {
		c.JSON(http.StatusOK, gin.H{"message": "No pending downgrade to cancel"})
		return
	}

	if !requireStripe(c) {
		return
	}

	scheduleID := *sub.StripeScheduleID
	if _, err := schedules.Release(scheduleID, nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to release Stripe schedule",
			"details": err.Error(),
		})
		return
	}

	if err := database.DB.Model(&domain.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]interface{}{
			"pending_price_id":   nil,
			"pending_start_date": nil,
			"stripe_schedule_id": nil,
		}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to clear pending downgrade in DB",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Pending downgrade cancelled",
		"schedule_id": scheduleID,
	})
}
