package billing

import (
	"time"

	"nitpickr-api/internal/domain/tiers"

	"github.com/shopspring/decimal"
)

// Service mirrors an active Stripe product.
type Service struct {
	ID          string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Features    []string  `gorm:"serializer:json" json:"features"`
	Image       string    `json:"image"`
	Created     time.Time `json:"created"`
	Prices      []Price   `gorm:"foreignKey:ServiceID" json:"prices,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Price mirrors an active Stripe price.
type Price struct {
	ID            string           `gorm:"type:varchar(64);primaryKey" json:"id"`
	ServiceID     string           `gorm:"type:varchar(64);index;not null" json:"service_id"`
	Service       *Service         `json:"-"`
	Amount        *decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	Currency      string           `gorm:"type:varchar(8)" json:"currency"`
	BillingScheme string           `json:"billing_scheme"`
	Type          string           `json:"type"`
	Interval      string           `json:"interval"`
	Created       time.Time        `json:"created"`
	CreatedAt     time.Time        `json:"-"`
	UpdatedAt     time.Time        `json:"-"`
}

// Subscription mirrors a Stripe subscription owned by a user or a team.
type Subscription struct {
	ID         string      `gorm:"type:varchar(64);primaryKey" json:"id"`
	CustomerID string      `gorm:"type:varchar(64);index;not null" json:"customer_id"`
	PriceID    string      `gorm:"type:varchar(64);index" json:"price_id"`
	TierID     *string     `gorm:"type:varchar(64);index" json:"tier_id"`
	Tier       *tiers.Tier `json:"tier,omitempty"`
	UserID     *string     `gorm:"type:varchar(36);index" json:"user_id"`
	TeamID     *string     `gorm:"type:varchar(36);index" json:"team_id"`
	Active     bool        `gorm:"not null;default:false;index" json:"active"`
	Status     string      `gorm:"type:varchar(32)" json:"status"`
	StartDate  time.Time   `json:"start_date"`
	EndDate    time.Time   `json:"end_date"`
	CancelAt   *time.Time  `json:"cancel_at"`

	PendingPriceID   *string    `gorm:"type:varchar(64)" json:"pending_price_id"`
	PendingStartDate *time.Time `json:"pending_start_date"`
	StripeScheduleID *string    `gorm:"type:varchar(64)" json:"stripe_schedule_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
