package nitpicks

import (
	"time"

	"nitpickr-api/internal/domain/realestate"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Nitpick is a property a user saved into a team workspace.
type Nitpick struct {
	ID           string                 `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string                 `gorm:"type:varchar(36);not null;index" json:"userId"`
	RealEstateID string                 `gorm:"type:varchar(64);not null;index" json:"realEstateId"`
	RealEstate   *realestate.RealEstate `json:"realEstate,omitempty"`
	TeamID       *string                `gorm:"type:varchar(36);index" json:"teamId"`
	CreatedAt    time.Time              `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

func (n *Nitpick) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
