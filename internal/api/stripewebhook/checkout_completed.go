package stripewebhooks

import (
	"errors"
	"fmt"

	"nitpickr-api/database"
	"nitpickr-api/internal/billing"

	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
)

// handleCheckoutSessionCompleted stores the subscription the checkout
// created. The client reference id names the user when the customer is not
// yet linked.
func handleCheckoutSessionCompleted(session *stripe.CheckoutSession) error {
	fullSession, err := checkoutsession.Get(session.ID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Expand: []*string{
				stripe.String("subscription"),
				stripe.String("subscription.items.data.price"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to fetch expanded checkout session: %w", err)
	}

	if fullSession.Subscription == nil || fullSession.Subscription.ID == "" {
		return errors.New("checkout session missing subscription")
	}

	sub := fullSession.Subscription
	if sub.Customer == nil && fullSession.Customer != nil {
		sub.Customer = fullSession.Customer
	}

	_, err = billing.UpsertSubscription(database.DB, sub, fullSession.ClientReferenceID)
	return err
}
