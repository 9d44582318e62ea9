package issues

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SourceAI   = "ai"
	SourceUser = "user"
)

// RealEstateIssue is a concern about a property, organised by category and area.
type RealEstateIssue struct {
	ID           string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	RealEstateID string         `gorm:"type:varchar(64);not null;index" json:"realEstateId"`
	Category     string         `gorm:"index" json:"category"`
	Area         string         `json:"area"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `json:"description"`
	Severity     string         `json:"severity"`
	Source       string         `gorm:"type:varchar(8);not null;default:'ai'" json:"source"`
	CreatedBy    *string        `gorm:"type:varchar(36);index" json:"createdBy"`
	TeamID       *string        `gorm:"type:varchar(36);index" json:"teamId"`
	Comments     []IssueComment `gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	Votes        []IssueVote    `gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (i *RealEstateIssue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Source == "" {
		i.Source = SourceAI
	}
	return nil
}

type IssueComment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	IssueID   string    `gorm:"type:varchar(36);not null;index" json:"issueId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedBy string    `gorm:"type:varchar(36);not null;index" json:"createdBy"`
	TeamID    *string   `gorm:"type:varchar(36);index" json:"teamId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *IssueComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IssueVote holds one user's thumb on an issue: +1 or -1.
type IssueVote struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	IssueID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_issue_votes_issue_user,priority:1" json:"issueId"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_issue_votes_issue_user,priority:2" json:"userId"`
	Vote      int       `gorm:"not null" json:"vote"`
	TeamID    *string   `gorm:"type:varchar(36)" json:"teamId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (v *IssueVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// Tally sums up and down votes.
type Tally struct {
	Up   int `json:"up"`
	Down int `json:"down"`
	Mine int `json:"mine"`
}

func TallyVotes(votes []IssueVote, userID string) Tally {
	var t Tally
	for _, v := range votes {
		switch {
		case v.Vote > 0:
			t.Up++
		case v.Vote < 0:
			t.Down++
		}
		if v.UserID == userID {
			t.Mine = v.Vote
		}
	}
	return t
}
