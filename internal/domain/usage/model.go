package usage

import "time"

const (
	EntityUser   = "user"
	EntityTeam   = "team"
	EntitySystem = "system"
)

// ResourceUsage is the durable copy of a usage counter.
type ResourceUsage struct {
	ID           uint   `gorm:"primaryKey"`
	EntityID     string `gorm:"type:varchar(64);not null;uniqueIndex:idx_resource_usage_entity,priority:1"`
	EntityType   string `gorm:"type:varchar(10);not null;uniqueIndex:idx_resource_usage_entity,priority:2"`
	ResourceType string `gorm:"type:varchar(128);not null;uniqueIndex:idx_resource_usage_entity,priority:3"`
	Usage        int64  `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func ValidEntityType(t string) bool {
	switch t {
	case EntityUser, EntityTeam, EntitySystem:
		return true
	}
	return false
}
