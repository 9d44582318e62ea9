package billing

import (
	"errors"
	"net/http"
	"time"

	"nitpickr-api/database"
	"nitpickr-api/internal/billing"
	domain "nitpickr-api/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v75"
	stripesub "github.com/stripe/stripe-go/v75/subscription"
	schedules "github.com/stripe/stripe-go/v75/subscriptionschedule"
	"gorm.io/gorm"
)

func amountOf(p domain.Price) decimal.Decimal {
	if p.Amount == nil {
		return decimal.Zero
	}
	return *p.Amount
}

// IsUpgrade compares two prices by amount.
func IsUpgrade(current, target domain.Price) bool {
	return amountOf(target).GreaterThan(amountOf(current))
}

// ChangePlan POST /payments/change-plan {price}. An upgrade applies now with
// proration; a downgrade is scheduled for the end of the period.
func (h *Handler) ChangePlan(c *gin.Context) {
	var body struct {
		Price string `json:"price"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Price == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid price"})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	var target domain.Price
	if err := database.DB.First(&target, "id = ?", body.Price).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Target price not found (run sync-stripe)"})
		return
	}

	current, err := billing.ActiveForUser(database.DB, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No active subscription to change. Use checkout first."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if current.PriceID == target.ID {
		c.JSON(http.StatusOK, gin.H{"message": "Already on this plan"})
		return
	}

	if !requireStripe(c) {
		return
	}

	sub, err := stripesub.Get(current.ID, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch Stripe subscription", "details": err.Error()})
		return
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Subscription has no price item"})
		return
	}
	item := sub.Items.Data[0]

	var currentPrice domain.Price
	isUpgrade := true
	if err := database.DB.First(&currentPrice, "id = ?", item.Price.ID).Error; err == nil {
		isUpgrade = IsUpgrade(currentPrice, target)
	}

	if isUpgrade {
		h.upgrade(c, current, item, target)
		return
	}
	h.scheduleDowngrade(c, current, sub, item.Price.ID, target)
}

func (h *Handler) upgrade(c *gin.Context, current *domain.Subscription, item *stripe.SubscriptionItem, target domain.Price) {
	updatedSub, err := stripesub.Update(current.ID, &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{ID: stripe.String(item.ID), Price: stripe.String(target.ID)},
		},
		ProrationBehavior: stripe.String("create_prorations"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade subscription", "details": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"price_id":           target.ID,
		"end_date":           time.Unix(updatedSub.CurrentPeriodEnd, 0).UTC(),
		"pending_price_id":   nil,
		"pending_start_date": nil,
	}
	if tierID, ok, err := billing.TierIDForPrice(database.DB, target.ID); err == nil && ok {
		updates["tier_id"] = tierID
	}
	if err := database.DB.Model(&domain.Subscription{}).Where("id = ?", current.ID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update subscription", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            "Upgraded now (prorated automatically by Stripe)",
		"is_upgrade":         true,
		"current_period_end": time.Unix(updatedSub.CurrentPeriodEnd, 0).UTC(),
		"subscription_id":    updatedSub.ID,
	})
}

func (h *Handler) scheduleDowngrade(c *gin.Context, current *domain.Subscription, sub *stripe.Subscription, currentPriceID string, target domain.Price) {
	periodStart := sub.CurrentPeriodStart
	periodEnd := sub.CurrentPeriodEnd
	effectiveAt := time.Unix(periodEnd, 0).UTC()

	scheduleID := ""
	if sub.Schedule != nil {
		scheduleID = sub.Schedule.ID
	}
	if scheduleID == "" {
		schedule, err := schedules.New(&stripe.SubscriptionScheduleParams{
			FromSubscription: stripe.String(sub.ID),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create schedule", "details": err.Error()})
			return
		}
		scheduleID = schedule.ID
	}

	_, err := schedules.Update(scheduleID, &stripe.SubscriptionScheduleParams{
		EndBehavior: stripe.String("release"),
		Phases: []*stripe.SubscriptionSchedulePhaseParams{
			{
				StartDate: stripe.Int64(periodStart),
				EndDate:   stripe.Int64(periodEnd),
				Items: []*stripe.SubscriptionSchedulePhaseItemParams{
					{Price: stripe.String(currentPriceID), Quantity: stripe.Int64(1)},
				},
			},
			{
				StartDate: stripe.Int64(periodEnd),
				Items: []*stripe.SubscriptionSchedulePhaseItemParams{
					{Price: stripe.String(target.ID), Quantity: stripe.Int64(1)},
				},
			},
		},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update schedule phases", "details": err.Error()})
		return
	}

	if err := database.DB.Model(&domain.Subscription{}).Where("id = ?", current.ID).Updates(map[string]interface{}{
		"pending_price_id":   target.ID,
		"pending_start_date": effectiveAt,
		"stripe_schedule_id": scheduleID,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store pending downgrade", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Downgrade scheduled for next billing cycle",
		"is_upgrade":   false,
		"effective_at": effectiveAt,
		"schedule_id":  scheduleID,
	})
}
