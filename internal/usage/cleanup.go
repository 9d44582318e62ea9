package usage

import (
	"context"
	"fmt"

	"nitpickr-api/internal/domain/tiers"
	domain "nitpickr-api/internal/domain/usage"
)

// Cleanup resets every periodic counter. It runs weekly so that plan limits
// apply per week. Storage is cumulative and is left alone.
func (s *Service) Cleanup(ctx context.Context) (int, error) {
	if s.Cache == nil {
		return 0, fmt.Errorf("usage cache not configured")
	}

	s.Log.Info("Starting usage cleanup job")

	keys, err := s.Cache.Keys(ctx, keyPrefix+":*")
	if err != nil {
		return 0, fmt.Errorf("list usage keys: %w", err)
	}

	cleaned := 0
	for _, key := range keys {
		entityType, entityID, resourceType, ok := ParseKey(key)
		if !ok {
			s.Log.Warn("Skipping malformed usage key", "key", key)
			continue
		}
		if resourceType == tiers.ResourceStorage {
			continue
		}
		if err := s.ResetUsage(ctx, entityID, entityType, resourceType); err != nil {
			s.Log.Error("Usage reset failed", "key", key, "error", err)
			continue
		}
		cleaned++
	}

	// Rows whose Redis key is already gone would otherwise resurface as the
	// fallback value of GetUsage.
	if err := s.DB.WithContext(ctx).Where("resource_type <> ?", tiers.ResourceStorage).Delete(&domain.ResourceUsage{}).Error; err != nil {
		return cleaned, fmt.Errorf("clear stored usage: %w", err)
	}

	s.Log.Info("Usage cleanup finished", "cleaned", cleaned)
	return cleaned, nil
}

// CleanupJob adapts Cleanup to the scheduler's job signature.
func (s *Service) CleanupJob(ctx context.Context) error {
	_, err := s.Cleanup(ctx)
	return err
}
