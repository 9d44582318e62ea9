package billing

import (
	"context"
	"errors"
	"fmt"

	domain "nitpickr-api/internal/domain/billing"
	"nitpickr-api/internal/domain/tiers"
	"nitpickr-api/internal/logger"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/price"
	"github.com/stripe/stripe-go/v75/product"
	"github.com/stripe/stripe-go/v75/subscription"
	"gorm.io/gorm"
)

var (
	ErrNoProducts = errors.New("no products found on Stripe")
	ErrNoPrices   = errors.New("no prices found on Stripe")
)

// Source lists the catalogue and subscriptions to import.
type Source interface {
	Products(ctx context.Context) ([]*stripe.Product, error)
	Prices(ctx context.Context) ([]*stripe.Price, error)
	Subscriptions(ctx context.Context) ([]*stripe.Subscription, error)
}

// StripeSource reads from the Stripe API.
type StripeSource struct{}

func (StripeSource) Products(ctx context.Context) ([]*stripe.Product, error) {
	params := &stripe.ProductListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	it := product.List(params)
	var out []*stripe.Product
	for it.Next() {
		out = append(out, it.Product())
	}
	return out, it.Err()
}

func (StripeSource) Prices(ctx context.Context) ([]*stripe.Price, error) {
	params := &stripe.PriceListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	it := price.List(params)
	var out []*stripe.Price
	for it.Next() {
		out = append(out, it.Price())
	}
	return out, it.Err()
}

func (StripeSource) Subscriptions(ctx context.Context) ([]*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{Status: stripe.String("all")}
	params.Context = ctx
	it := subscription.List(params)
	var out []*stripe.Subscription
	for it.Next() {
		out = append(out, it.Subscription())
	}
	return out, it.Err()
}

type SyncStats struct {
	Products      int64 `json:"products"`
	Prices        int64 `json:"prices"`
	Subscriptions int64 `json:"subscriptions"`
	Skipped       int   `json:"skipped"`
}

// Syncer replaces the local catalogue with Stripe's.
type Syncer struct {
	DB     *gorm.DB
	Source Source
	log    *logger.Logger
}

func NewSyncer(db *gorm.DB, src Source) *Syncer {
	return &Syncer{DB: db, Source: src, log: logger.New("stripe-sync")}
}

// Sync wipes prices, services, subscriptions and tiers, reseeds the fixed
// tiers and the active catalogue in one transaction, then imports the
// subscriptions whose price and customer are known.
func (s *Syncer) Sync(ctx context.Context) (SyncStats, error) {
	s.log.Info("Starting sync with Stripe")

	products, err := s.Source.Products(ctx)
	if err != nil {
		return SyncStats{}, fmt.Errorf("list products: %w", err)
	}
	prices, err := s.Source.Prices(ctx)
	if err != nil {
		return SyncStats{}, fmt.Errorf("list prices: %w", err)
	}
	subs, err := s.Source.Subscriptions(ctx)
	if err != nil {
		return SyncStats{}, fmt.Errorf("list subscriptions: %w", err)
	}
	if len(prices) == 0 {
		return SyncStats{}, ErrNoPrices
	}
	if len(products) == 0 {
		return SyncStats{}, ErrNoProducts
	}

	db := s.DB.WithContext(ctx)
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&domain.Price{}, &domain.Subscription{}, &domain.Service{}, &tiers.Tier{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}
		}
		for _, t := range tiers.Fixed() {
			tier := t
			if err := tx.Create(&tier).Error; err != nil {
				return fmt.Errorf("seed tier %s: %w", tier.ID, err)
			}
		}
		known := make(map[string]bool, len(products))
		for _, p := range products {
			svc := ServiceFromProduct(p)
			if err := tx.Create(&svc).Error; err != nil {
				return fmt.Errorf("create service %s: %w", p.ID, err)
			}
			known[svc.ID] = true
		}
		for _, p := range prices {
			row := PriceFromStripe(p)
			if !known[row.ServiceID] {
				s.log.Warn("Skipping price of inactive product", "price", row.ID, "product", row.ServiceID)
				continue
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create price %s: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return SyncStats{}, err
	}

	var stats SyncStats
	for _, sub := range subs {
		if !s.importSubscription(db, sub) {
			stats.Skipped++
		}
	}

	db.Model(&domain.Service{}).Count(&stats.Products)
	db.Model(&domain.Price{}).Count(&stats.Prices)
	db.Model(&domain.Subscription{}).Count(&stats.Subscriptions)

	s.log.Info("Sync completed",
		"products", stats.Products, "prices", stats.Prices,
		"subscriptions", stats.Subscriptions, "skipped", stats.Skipped)
	return stats, nil
}

func (s *Syncer) importSubscription(db *gorm.DB, sub *stripe.Subscription) bool {
	priceID := PriceID(sub)
	tierID, ok, err := TierIDForPrice(db, priceID)
	if err != nil || !ok {
		s.log.Warn("No price found for subscription, skipping", "subscription", sub.ID, "price", priceID, "error", err)
		return false
	}

	userID, teamID, err := owner(db, CustomerID(sub), "")
	if err != nil {
		s.log.Warn("No owner found for customer, skipping", "subscription", sub.ID, "customer", CustomerID(sub), "error", err)
		return false
	}

	row := SubscriptionFromStripe(sub)
	row.TierID = &tierID
	row.UserID, row.TeamID = userID, teamID
	if err := db.Create(&row).Error; err != nil {
		s.log.Error("Subscription import failed", "subscription", sub.ID, "error", err)
		return false
	}
	return true
}
