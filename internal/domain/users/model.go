package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	ProviderLocal  = "local"
	ProviderGoogle = "google"

	maxNameLength = 104
)

type User struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name          string     `gorm:"not null" json:"name"`
	Email         string     `gorm:"not null;uniqueIndex:idx_users_email" json:"email"`
	Password      *string    `json:"-"`
	AuthProvider  string     `gorm:"type:varchar(20);not null;default:'local'" json:"auth_provider"`
	GoogleSub     *string    `gorm:"uniqueIndex:idx_users_google_sub" json:"-"`
	Role          string     `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	EmailVerified *time.Time `json:"email_verified"`

	InvalidLoginAttempts int        `gorm:"not null;default:0" json:"-"`
	LockedAt             *time.Time `json:"-"`

	BillingID       *string `gorm:"uniqueIndex:idx_users_billing_id" json:"-"`
	BillingProvider *string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Name = NormalizeName(u.Name)
	u.Email = NormalizeEmail(u.Email)
	return nil
}

func (u *User) IsVerified() bool {
	return u.EmailVerified != nil
}

func (u *User) IsLocked() bool {
	return u.LockedAt != nil
}

// NormalizeName trims and caps the display name length.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if len([]rune(name)) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
