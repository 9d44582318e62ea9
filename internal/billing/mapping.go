package billing

import (
	"time"

	domain "nitpickr-api/internal/domain/billing"
	stripeinfra "nitpickr-api/internal/infra/stripe"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v75"
)

func unix(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

// ServiceFromProduct maps a Stripe product to its local row.
func ServiceFromProduct(p *stripe.Product) domain.Service {
	features := make([]string, 0, len(p.Features))
	for _, f := range p.Features {
		if f != nil && f.Name != "" {
			features = append(features, f.Name)
		}
	}
	image := ""
	if len(p.Images) > 0 {
		image = p.Images[0]
	}
	return domain.Service{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Features:    features,
		Image:       image,
		Created:     unix(p.Created),
	}
}

// PriceFromStripe maps a Stripe price. Amounts are stored in major units;
// a zero unit amount is stored as null.
func PriceFromStripe(p *stripe.Price) domain.Price {
	var amount *decimal.Decimal
	if p.UnitAmount != 0 {
		a := decimal.NewFromInt(p.UnitAmount).Div(decimal.NewFromInt(100))
		amount = &a
	}
	interval := ""
	if p.Recurring != nil {
		interval = string(p.Recurring.Interval)
	}
	serviceID := ""
	if p.Product != nil {
		serviceID = p.Product.ID
	}
	return domain.Price{
		ID:            p.ID,
		ServiceID:     serviceID,
		Amount:        amount,
		Currency:      string(p.Currency),
		BillingScheme: string(p.BillingScheme),
		Type:          string(p.Type),
		Interval:      interval,
		Created:       unix(p.Created),
	}
}

// PriceID returns the price of the subscription's first item.
func PriceID(s *stripe.Subscription) string {
	if s.Items == nil || len(s.Items.Data) == 0 || s.Items.Data[0].Price == nil {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

func CustomerID(s *stripe.Subscription) string {
	if s.Customer == nil {
		return ""
	}
	return s.Customer.ID
}

// SubscriptionFromStripe maps a Stripe subscription. The owner and tier are
// set by the caller.
func SubscriptionFromStripe(s *stripe.Subscription) domain.Subscription {
	status := string(s.Status)
	sub := domain.Subscription{
		ID:         s.ID,
		CustomerID: CustomerID(s),
		PriceID:    PriceID(s),
		Active:     stripeinfra.IsActive(status),
		Status:     stripeinfra.NormalizeStatus(status),
		StartDate:  unix(s.CurrentPeriodStart),
		EndDate:    unix(s.CurrentPeriodEnd),
	}
	if s.CancelAt != 0 {
		t := unix(s.CancelAt)
		sub.CancelAt = &t
	}
	if s.Schedule != nil && s.Schedule.ID != "" {
		id := s.Schedule.ID
		sub.StripeScheduleID = &id
	}
	return sub
}
