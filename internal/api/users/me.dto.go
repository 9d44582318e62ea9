package users

import (
	"time"

	"nitpickr-api/internal/domain/tiers"
)

type MeResponse struct {
	User         UserDTO              `json:"user"`
	Teams        []TeamDTO            `json:"teams"`
	Subscription *SubscriptionDTO     `json:"subscription"`
	Tier         *tiers.Tier          `json:"tier"`
	Usage        map[string]UsageDTO `json:"usage"`
}

type UserDTO struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	AuthProvider  string     `json:"auth_provider"`
	EmailVerified *time.Time `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
}

type TeamDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Role string `json:"role"`
}

type SubscriptionDTO struct {
	ID               string      `json:"id"`
	Status           string      `json:"status"`
	PriceID          string      `json:"price_id"`
	StartDate        time.Time   `json:"start_date"`
	EndDate          time.Time   `json:"end_date"`
	CancelAt         *time.Time  `json:"cancel_at"`
	PendingPriceID   *string     `json:"pending_price_id"`
	PendingStartDate *time.Time  `json:"pending_start_date"`
	Tier             *tiers.Tier `json:"tier"`
}

// UsageDTO is one resource counter; Limit is nil when the tier sets none.
type UsageDTO struct {
	Used  int64  `json:"used"`
	Limit *int64 `json:"limit"`
}
