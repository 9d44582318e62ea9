package billing

import (
	"errors"
	"fmt"

	domain "nitpickr-api/internal/domain/billing"
	"nitpickr-api/internal/domain/teams"
	"nitpickr-api/internal/domain/tiers"
	"nitpickr-api/internal/domain/users"

	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
)

var ErrUnknownCustomer = errors.New("no user or team for stripe customer")

// TierIDForPrice derives the tier from the price's product name. ok is false
// when the price or its tier is unknown locally.
func TierIDForPrice(db *gorm.DB, priceID string) (string, bool, error) {
	if priceID == "" {
		return "", false, nil
	}
	var price domain.Price
	err := db.Preload("Service").First(&price, "id = ?", priceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load price: %w", err)
	}
	if price.Service == nil {
		return "", false, nil
	}

	tierID := tiers.IDForServiceName(price.Service.Name)
	var n int64
	if err := db.Model(&tiers.Tier{}).Where("id = ?", tierID).Count(&n).Error; err != nil {
		return "", false, fmt.Errorf("load tier: %w", err)
	}
	return tierID, n > 0, nil
}

// owner finds who a Stripe customer belongs to: a user with that billing id,
// then a team, then fallbackUserID.
func owner(db *gorm.DB, customerID, fallbackUserID string) (userID, teamID *string, err error) {
	if customerID != "" {
		var u users.User
		err := db.Select("id").Where("billing_id = ?", customerID).First(&u).Error
		if err == nil {
			return &u.ID, nil, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}

		var t teams.Team
		err = db.Select("id").Where("billing_id = ?", customerID).First(&t).Error
		if err == nil {
			return nil, &t.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	}

	if fallbackUserID != "" {
		var u users.User
		err := db.Select("id").Where("id = ?", fallbackUserID).First(&u).Error
		if err == nil {
			return &u.ID, nil, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	}
	return nil, nil, ErrUnknownCustomer
}

// UpsertSubscription stores a Stripe subscription for its owner. A pending
// downgrade survives unless the subscription now runs on the pending price.
func UpsertSubscription(db *gorm.DB, s *stripe.Subscription, fallbackUserID string) (*domain.Subscription, error) {
	if s == nil || s.ID == "" {
		return nil, errors.New("subscription missing id")
	}

	row := SubscriptionFromStripe(s)
	userID, teamID, err := owner(db, row.CustomerID, fallbackUserID)
	if err != nil {
		return nil, err
	}
	row.UserID, row.TeamID = userID, teamID

	tierID, ok, err := TierIDForPrice(db, row.PriceID)
	if err != nil {
		return nil, err
	}
	if ok {
		row.TierID = &tierID
	}

	var existing domain.Subscription
	err = db.First(&existing, "id = ?", row.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(&row).Error; err != nil {
			return nil, fmt.Errorf("create subscription: %w", err)
		}
		return &row, nil
	case err != nil:
		return nil, fmt.Errorf("load subscription: %w", err)
	}

	if existing.PendingPriceID != nil && *existing.PendingPriceID != row.PriceID {
		row.PendingPriceID = existing.PendingPriceID
		row.PendingStartDate = existing.PendingStartDate
		if row.StripeScheduleID == nil {
			row.StripeScheduleID = existing.StripeScheduleID
		}
	}
	row.CreatedAt = existing.CreatedAt

	if err := db.Save(&row).Error; err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	return &row, nil
}

func DeleteSubscription(db *gorm.DB, id string) error {
	return db.Where("id = ?", id).Delete(&domain.Subscription{}).Error
}

// ActiveForUser returns the user's most recent active subscription.
func ActiveForUser(db *gorm.DB, userID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := db.Preload("Tier").
		Where("user_id = ? AND active = ?", userID, true).
		Order("start_date DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
