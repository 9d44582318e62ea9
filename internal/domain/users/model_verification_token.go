package users

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TokenVerifyEmail   = "verify_email"
	TokenPasswordReset = "password_reset"
)

type VerificationToken struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(36);index;not null"`
	User      User      `gorm:"constraint:OnDelete:CASCADE"`
	Token     string    `gorm:"uniqueIndex;not null"`
	Type      string    `gorm:"type:varchar(20);index;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (t *VerificationToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (t *VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
