package billing

import (
	"errors"
	"net/http"

	"nitpickr-api/database"
	domain "nitpickr-api/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	portalSession "github.com/stripe/stripe-go/v75/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"gorm.io/gorm"
)

type checkoutRequest struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

// CreateCheckoutSession POST /payments/create-checkout-session {price, quantity}
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var body checkoutRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.Price == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid price"})
		return
	}
	if body.Quantity <= 0 {
		body.Quantity = 1
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	// allow-list price id
	var price domain.Price
	if err := database.DB.First(&price, "id = ?", body.Price).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown price"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !requireStripe(c) {
		return
	}

	customerID, err := h.Customers.BillingCustomerID(user, nil)
	if err != nil {
		log.Error("Billing customer lookup failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve billing customer"})
		return
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(returnURL()),
		CancelURL:  stripe.String(returnURL()),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(customerID),

		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(price.ID), Quantity: stripe.Int64(body.Quantity)},
		},

		ClientReferenceID: stripe.String(user.ID),

		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": user.ID},
		},
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		log.Error("Checkout session failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s})
}

// CreatePortalLink POST /payments/create-portal-link
func (h *Handler) CreatePortalLink(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireStripe(c) {
		return
	}

	customerID, err := h.Customers.BillingCustomerID(user, nil)
	if err != nil {
		log.Error("Billing customer lookup failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve billing customer"})
		return
	}

	url, err := portalURL(customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create billing portal session", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url}})
}

func portalURL(customerID string) (string, error) {
	portal, err := portalSession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL()),
	})
	if err != nil {
		return "", err
	}
	return portal.URL, nil
}
