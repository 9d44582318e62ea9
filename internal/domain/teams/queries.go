package teams

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("team not found")
	ErrNotMember = errors.New("user is not a member of the team")
	ErrNoTeam    = errors.New("user is not a member of any team")
	ErrSlugTaken = errors.New("a team with this slug already exists")
)

// Membership returns the caller's membership in a team.
func Membership(db *gorm.DB, teamID, userID string) (*TeamMember, error) {
	var m TeamMember
	err := db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotMember
	}
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	return &m, nil
}

// FirstMembership returns the user's oldest membership.
func FirstMembership(db *gorm.DB, userID string) (*TeamMember, error) {
	var m TeamMember
	err := db.Where("user_id = ?", userID).Order("created_at ASC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoTeam
	}
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	return &m, nil
}

func BySlug(db *gorm.DB, slug string) (*Team, error) {
	var t Team
	err := db.Where("slug = ?", slug).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load team: %w", err)
	}
	return &t, nil
}

// MemberOfSlug loads the team and the caller's membership in one go.
func MemberOfSlug(db *gorm.DB, slug, userID string) (*Team, *TeamMember, error) {
	team, err := BySlug(db, slug)
	if err != nil {
		return nil, nil, err
	}
	m, err := Membership(db, team.ID, userID)
	if err != nil {
		return nil, nil, err
	}
	return team, m, nil
}

// ForUser lists the teams the user belongs to, oldest first.
func ForUser(db *gorm.DB, userID string) ([]Team, error) {
	var list []Team
	err := db.Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID).
		Order("teams.created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return list, nil
}

func CountOwned(db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.Model(&TeamMember{}).
		Where("user_id = ? AND role = ?", userID, RoleOwner).
		Count(&n).Error
	return n, err
}

func SlugExists(db *gorm.DB, slug string) (bool, error) {
	var n int64
	err := db.Model(&Team{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

// Create inserts a team with the user as its owner.
func Create(db *gorm.DB, name, slug, ownerID string) (*Team, error) {
	team := Team{Name: name, Slug: slug}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		return tx.Create(&TeamMember{TeamID: team.ID, UserID: ownerID, Role: RoleOwner}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	return &team, nil
}
