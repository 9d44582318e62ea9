package realestate

import (
	"encoding/json"
	"time"
)

type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RealEstate is a listing persisted by the AI backend when a property is
// analysed. This service only reads it.
type RealEstate struct {
	ID              string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	Address         string          `gorm:"not null" json:"address"`
	Price           *float64        `json:"price"`
	Bedrooms        *int            `json:"bedrooms"`
	Bathrooms       *float64        `json:"bathrooms"`
	Area            *float64        `json:"area"`
	Garage          *int            `json:"garage"`
	LotSize         *float64        `json:"lot_size"`
	YearBuilt       *int            `json:"year_built"`
	ListingURL      string          `json:"listing_url"`
	Images          []string        `gorm:"serializer:json" json:"images"`
	Description     string          `json:"description"`
	Geo             *Geo            `gorm:"serializer:json" json:"geo"`
	Town            string          `gorm:"index" json:"town"`
	Status          string          `json:"status"`
	Country         string          `json:"country"`
	PostalCode      string          `json:"postal_code"`
	PropertyHistory json.RawMessage `gorm:"serializer:json" json:"property_history"`
	ExtraInfo       json.RawMessage `gorm:"serializer:json" json:"extra_info"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RealEstate) TableName() string {
	return "real_estates"
}
