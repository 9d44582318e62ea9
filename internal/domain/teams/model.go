package teams

import (
	"time"

	"nitpickr-api/internal/domain/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Team struct {
	ID              string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name            string  `gorm:"not null" json:"name"`
	Slug            string  `gorm:"not null;uniqueIndex:idx_teams_slug" json:"slug"`
	Domain          *string `gorm:"uniqueIndex:idx_teams_domain" json:"domain"`
	DefaultRole     Role    `gorm:"type:varchar(10);not null;default:'MEMBER'" json:"default_role"`
	BillingID       *string `json:"-"`
	BillingProvider *string `json:"-"`

	Members []TeamMember `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.DefaultRole == "" {
		t.DefaultRole = RoleMember
	}
	return nil
}

type TeamMember struct {
	ID     string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	TeamID string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_team_members_team_user,priority:1" json:"team_id"`
	Team   Team       `json:"team,omitempty"`
	UserID string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_team_members_team_user,priority:2;index" json:"user_id"`
	User   users.User `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Role   Role       `gorm:"type:varchar(10);not null;default:'MEMBER'" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type Invitation struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TeamID    string    `gorm:"type:varchar(36);not null;index" json:"team_id"`
	Team      Team      `gorm:"constraint:OnDelete:CASCADE" json:"team,omitempty"`
	Email     string    `gorm:"not null;index" json:"email"`
	Role      Role      `gorm:"type:varchar(10);not null;default:'MEMBER'" json:"role"`
	Token     string    `gorm:"not null;uniqueIndex:idx_invitations_token" json:"token"`
	InvitedBy string    `gorm:"type:varchar(36);not null" json:"invited_by"`
	ExpiresAt time.Time `gorm:"not null" json:"expires"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const InvitationTTL = 7 * 24 * time.Hour

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Token == "" {
		i.Token = uuid.NewString()
	}
	if i.ExpiresAt.IsZero() {
		i.ExpiresAt = time.Now().Add(InvitationTTL)
	}
	if i.Role == "" {
		i.Role = RoleMember
	}
	return nil
}

func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
