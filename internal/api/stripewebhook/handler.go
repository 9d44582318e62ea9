package stripewebhooks

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"nitpickr-api/config"
	"nitpickr-api/database"
	"nitpickr-api/internal/billing"
	stripeinfra "nitpickr-api/internal/infra/stripe"
	"nitpickr-api/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

var log = logger.New("stripe-webhook")

func StripeWebhook(c *gin.Context) {
	if !stripeinfra.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "STRIPE_SECRET_KEY not configured"})
		return
	}

	endpointSecret := config.STRIPE_WEBHOOK_SECRET
	if endpointSecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "STRIPE_WEBHOOK_SECRET not configured"})
		return
	}

	payload, err := readStripeBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		endpointSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		log.Warn("Stripe signature verification failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	handleEvent(c, event)
}

func handleEvent(c *gin.Context, event stripe.Event) {
	log.Info("Stripe event", "id", event.ID, "type", event.Type)

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse session"})
			return
		}
		respond(c, handleCheckoutSessionCompleted(&session))

	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse subscription"})
			return
		}
		_, err := billing.UpsertSubscription(database.DB, &sub, sub.Metadata["user_id"])
		respond(c, err)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse subscription"})
			return
		}
		respond(c, billing.DeleteSubscription(database.DB, sub.ID))

	default:
		// Acknowledge unknown events to avoid retries
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}

// respond acknowledges the event. Events for customers this service does
// not know are acknowledged too, so that Stripe stops retrying them.
func respond(c *gin.Context, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "received"})
	case errors.Is(err, billing.ErrUnknownCustomer):
		log.Warn("Stripe event for unknown customer", "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	default:
		log.Error("Stripe event handling failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
