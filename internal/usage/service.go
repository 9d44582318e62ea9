package usage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nitpickr-api/internal/cache"
	"nitpickr-api/internal/domain/billing"
	"nitpickr-api/internal/domain/tiers"
	domain "nitpickr-api/internal/domain/usage"
	"nitpickr-api/internal/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const keyPrefix = "usage"

// Service tracks per-entity resource counters in Redis with a database copy,
// and evaluates them against the entity's subscription tier.
type Service struct {
	DB    *gorm.DB
	Cache *cache.Store
	Log   *logger.Logger
}

func NewService(db *gorm.DB, store *cache.Store) *Service {
	return &Service{DB: db, Cache: store, Log: logger.New("usage")}
}

// CheckResult is the outcome of a limit check. Limit is nil when the entity
// has no applicable limit.
type CheckResult struct {
	Allowed      bool   `json:"allowed"`
	CurrentUsage int64  `json:"currentUsage"`
	Limit        *int64 `json:"limit,omitempty"`
}

func Key(entityType, entityID, resourceType string) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, entityType, entityID, resourceType)
}

// ParseKey splits a usage key back into its parts. The resource type may
// itself contain colons.
func ParseKey(key string) (entityType, entityID, resourceType string, ok bool) {
	parts := strings.SplitN(key, ":", 4)
	if len(parts) != 4 || parts[0] != keyPrefix || parts[1] == "" || parts[2] == "" || parts[3] == "" {
		return "", "", "", false
	}
	return parts[1], parts[2], parts[3], true
}

// GetUsage returns the cached counter, falling back to the stored copy and
// then to zero.
func (s *Service) GetUsage(ctx context.Context, entityID, entityType, resourceType string) (int64, error) {
	if s.Cache != nil {
		v, ok, err := s.Cache.GetInt(ctx, Key(entityType, entityID, resourceType))
		if err == nil && ok {
			return v, nil
		}
		if err != nil {
			s.Log.Warn("Usage cache read failed", "entity_id", entityID, "resource", resourceType, "error", err)
		}
	}

	return s.stored(ctx, entityID, entityType, resourceType)
}

func (s *Service) stored(ctx context.Context, entityID, entityType, resourceType string) (int64, error) {
	var row domain.ResourceUsage
	err := s.DB.WithContext(ctx).
		Where("entity_id = ? AND entity_type = ? AND resource_type = ?", entityID, entityType, resourceType).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load usage: %w", err)
	}
	return row.Usage, nil
}

// seed restores a counter missing from Redis (flushed or restarted) from the
// stored copy so increments continue from the persisted total.
func (s *Service) seed(ctx context.Context, key, entityID, entityType, resourceType string) error {
	if _, ok, err := s.Cache.GetInt(ctx, key); err != nil || ok {
		return err
	}
	n, err := s.stored(ctx, entityID, entityType, resourceType)
	if err != nil || n == 0 {
		return err
	}
	_, err = s.Cache.SetNX(ctx, key, n, 0)
	return err
}

// TrackUsage increments the counter by incrementBy and returns the new value.
func (s *Service) TrackUsage(ctx context.Context, entityID, entityType, resourceType string, incrementBy int64) (int64, error) {
	if s.Cache == nil {
		return 0, errors.New("usage cache not configured")
	}
	key := Key(entityType, entityID, resourceType)
	if err := s.seed(ctx, key, entityID, entityType, resourceType); err != nil {
		return 0, fmt.Errorf("seed usage: %w", err)
	}
	n, err := s.Cache.Incr(ctx, key, incrementBy)
	if err != nil {
		return 0, fmt.Errorf("increment usage: %w", err)
	}

	row := domain.ResourceUsage{
		EntityID:     entityID,
		EntityType:   entityType,
		ResourceType: resourceType,
		Usage:        n,
	}
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_id"}, {Name: "entity_type"}, {Name: "resource_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"usage", "updated_at"}),
	}).Create(&row).Error; err != nil {
		s.Log.Warn("Usage persist failed", "entity_id", entityID, "resource", resourceType, "error", err)
	}
	return n, nil
}

// ResetUsage clears the counter everywhere. A missing row is not an error.
func (s *Service) ResetUsage(ctx context.Context, entityID, entityType, resourceType string) error {
	if s.Cache != nil {
		if _, err := s.Cache.Del(ctx, Key(entityType, entityID, resourceType)); err != nil {
			return fmt.Errorf("clear usage cache: %w", err)
		}
	}
	return s.DB.WithContext(ctx).
		Where("entity_id = ? AND entity_type = ? AND resource_type = ?", entityID, entityType, resourceType).
		Delete(&domain.ResourceUsage{}).Error
}

// CheckUsageLimit evaluates the current counter against the entity's tier.
// System entities are never limited.
func (s *Service) CheckUsageLimit(ctx context.Context, entityID, entityType, resourceType string) (CheckResult, error) {
	if entityType == domain.EntitySystem {
		return CheckResult{Allowed: true}, nil
	}

	tier, err := s.TierFor(ctx, entityID, entityType)
	if err != nil {
		return CheckResult{}, err
	}

	current, err := s.GetUsage(ctx, entityID, entityType, resourceType)
	if err != nil {
		return CheckResult{}, err
	}

	limit, ok := tier.LimitFor(resourceType)
	s.Log.Debug("Usage check",
		"entity_type", entityType, "entity_id", entityID, "resource", resourceType,
		"current", current, "limit", limit, "has_limit", ok)
	if !ok {
		return CheckResult{Allowed: true, CurrentUsage: current}, nil
	}
	return CheckResult{Allowed: current < limit, CurrentUsage: current, Limit: &limit}, nil
}

// TierFor returns the tier of the entity's active subscription, or the basic
// tier when there is none. It returns nil when not even the basic tier exists.
func (s *Service) TierFor(ctx context.Context, entityID, entityType string) (*tiers.Tier, error) {
	column := "user_id"
	if entityType == domain.EntityTeam {
		column = "team_id"
	}

	var sub billing.Subscription
	err := s.DB.WithContext(ctx).
		Preload("Tier").
		Where(column+" = ? AND active = ?", entityID, true).
		Order("start_date DESC").
		First(&sub).Error
	switch {
	case err == nil && sub.Tier != nil:
		return sub.Tier, nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("load subscription: %w", err)
	}

	var basic tiers.Tier
	err = s.DB.WithContext(ctx).First(&basic, "id = ?", tiers.BasicTierID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load basic tier: %w", err)
	}
	return &basic, nil
}
