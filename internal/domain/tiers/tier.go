package tiers

import (
	"strings"
	"time"
)

const (
	BasicTierID   = "basic-tier"
	ProTierID     = "pro-tier"
	PremiumTierID = "premium-tier"
)

// Resource types with per-tier limits.
const (
	ResourceViews    = "views"
	ResourceAnalysis = "analysis"
	ResourceStorage  = "storage"
)

type Tier struct {
	ID          string           `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name        string           `gorm:"not null;uniqueIndex:idx_tiers_name" json:"name"`
	Description string           `json:"description"`
	Features    []string         `gorm:"serializer:json" json:"features"`
	MaxTeams    int              `gorm:"not null;default:1" json:"max_teams"`
	MaxStorage  int              `gorm:"not null;default:0" json:"max_storage"`
	MaxAPICalls *int             `gorm:"column:max_api_calls" json:"max_api_calls"`
	Price       int              `gorm:"not null;default:0" json:"price"`
	Limits      map[string]int64 `gorm:"serializer:json" json:"limits"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LimitFor returns the limit for a resource: the per-resource entry when one
// exists, otherwise the tier-wide API call cap. ok is false when neither is set.
func (t *Tier) LimitFor(resourceType string) (limit int64, ok bool) {
	if t == nil {
		return 0, false
	}
	if v, found := t.Limits[resourceType]; found {
		return v, true
	}
	if t.MaxAPICalls != nil {
		return int64(*t.MaxAPICalls), true
	}
	return 0, false
}

// IDForServiceName maps a Stripe product name to its tier id: "Pro" -> "pro-tier".
func IDForServiceName(name string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "-tier"
}

func intPtr(v int) *int { return &v }

// Fixed returns the seeded plan tiers.
func Fixed() []Tier {
	return []Tier{
		{
			ID:          BasicTierID,
			Name:        "Basic",
			Description: "Basic tier",
			Features:    []string{"1 Team", "50 Views Per Week", "10MB Storage", "1 Customized AI Analysis Per Week"},
			MaxTeams:    1,
			MaxStorage:  1024,
			MaxAPICalls: intPtr(1000),
			Price:       0,
			Limits:      map[string]int64{ResourceViews: 5, ResourceAnalysis: 1},
		},
		{
			ID:          ProTierID,
			Name:        "Pro",
			Description: "Pro tier",
			Features:    []string{"5 Teams", "1000 Views Per Week", "200MB Storage", "100 Customized AI Analysis Per Week"},
			MaxTeams:    5,
			MaxStorage:  10240,
			MaxAPICalls: intPtr(10000),
			Price:       2900,
			Limits:      map[string]int64{ResourceViews: 1000, ResourceAnalysis: 100},
		},
		{
			ID:          PremiumTierID,
			Name:        "Premium",
			Description: "Premium tier",
			Features:    []string{"50 Teams", "10000 Views Per Week", "1000MB Storage", "1000 Customized AI Analysis Per Week"},
			MaxTeams:    50,
			MaxStorage:  102400,
			MaxAPICalls: intPtr(100000),
			Price:       4900,
			Limits:      map[string]int64{ResourceViews: 10000, ResourceAnalysis: 1000},
		},
	}
}

// ProductOrder is the display order of Stripe products.
var ProductOrder = []string{"Basic", "Pro", "Premium"}
