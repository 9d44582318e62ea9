package realestate

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	StatusActive  = "Active"
	StatusPending = "Pending"
	StatusSold    = "Sold"
	StatusUnknown = "Unknown"
)

// NormalizeStatus folds the many upstream listing states into
// Active, Pending or Sold. Unrecognised values pass through.
func NormalizeStatus(status string) string {
	switch {
	case status == "Active" || strings.HasPrefix(status, "FOR SALE"):
		return StatusActive
	case status == "Pending" || status == "CONTINGENT" || status == "ACTIVE WITH CONTRACT":
		return StatusPending
	case status == "Sold" || status == "Off Market":
		return StatusSold
	case status == "":
		return StatusUnknown
	}
	return status
}

// Card is the listing shape the clients render for a saved property.
type Card struct {
	ID          string          `json:"id"`
	NitpickID   string          `json:"nid"`
	Address     string          `json:"address"`
	Price       *float64        `json:"price"`
	Beds        *int            `json:"beds"`
	Baths       *float64        `json:"baths"`
	Sqft        *float64        `json:"sqft"`
	Garage      *int            `json:"garage"`
	LotSize     *float64        `json:"lotSize"`
	History     json.RawMessage `json:"history"`
	YearBuilt   *int            `json:"year_built"`
	URL         string          `json:"url"`
	Image       *string         `json:"image"`
	Description string          `json:"description"`
	Geo         *Geo            `json:"_geo"`
	Town        string          `json:"town"`
	Status      string          `json:"status"`
	Country     string          `json:"country"`
	Zipcode     string          `json:"zipcode"`
	CreatedAt   time.Time       `json:"createdAt"`
	ExtraInfo   json.RawMessage `json:"extraInfo"`
}

func NewCard(r RealEstate, nitpickID string, savedAt time.Time) Card {
	var image *string
	if len(r.Images) > 0 {
		img := r.Images[0]
		image = &img
	}
	return Card{
		ID:          r.ID,
		NitpickID:   nitpickID,
		Address:     r.Address,
		Price:       r.Price,
		Beds:        r.Bedrooms,
		Baths:       r.Bathrooms,
		Sqft:        r.Area,
		Garage:      r.Garage,
		LotSize:     r.LotSize,
		History:     r.PropertyHistory,
		YearBuilt:   r.YearBuilt,
		URL:         r.ListingURL,
		Image:       image,
		Description: r.Description,
		Geo:         r.Geo,
		Town:        r.Town,
		Status:      NormalizeStatus(r.Status),
		Country:     r.Country,
		Zipcode:     r.PostalCode,
		CreatedAt:   savedAt,
		ExtraInfo:   r.ExtraInfo,
	}
}
