package users

import (
	"context"

	"nitpickr-api/database"
	"nitpickr-api/internal/cache"
	"nitpickr-api/internal/domain/billing"
	"nitpickr-api/internal/domain/teams"
	"nitpickr-api/internal/domain/tiers"
	usagedomain "nitpickr-api/internal/domain/usage"
	domain "nitpickr-api/internal/domain/users"
	"nitpickr-api/internal/usage"
)

// meResources are the counters reported on /me.
var meResources = []string{tiers.ResourceViews, tiers.ResourceAnalysis}

func BuildUserDTO(u domain.User) UserDTO {
	return UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		AuthProvider:  u.AuthProvider,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

func BuildSubscriptionDTO(s *billing.Subscription) *SubscriptionDTO {
	if s == nil {
		return nil
	}
	return &SubscriptionDTO{
		ID:               s.ID,
		Status:           s.Status,
		PriceID:          s.PriceID,
		StartDate:        s.StartDate,
		EndDate:          s.EndDate,
		CancelAt:         s.CancelAt,
		PendingPriceID:   s.PendingPriceID,
		PendingStartDate: s.PendingStartDate,
		Tier:             s.Tier,
	}
}

// loadTeams lists the user's teams with their role, through the query cache.
func loadTeams(ctx context.Context, userID string) ([]TeamDTO, error) {
	out := []TeamDTO{}
	err := cache.Queries.Remember(ctx, "teams", "member:"+userID, &out, func() error {
		var members []teams.TeamMember
		if err := database.DB.WithContext(ctx).
			Preload("Team").
			Where("user_id = ?", userID).
			Order("created_at ASC").
			Find(&members).Error; err != nil {
			return err
		}
		out = out[:0]
		for _, m := range members {
			out = append(out, TeamDTO{ID: m.Team.ID, Name: m.Team.Name, Slug: m.Team.Slug, Role: string(m.Role)})
		}
		return nil
	})
	return out, err
}

// buildUsage reports each counter against the effective tier. Counter read
// failures are reported as zero usage.
func buildUsage(ctx context.Context, svc *usage.Service, userID string, tier *tiers.Tier) map[string]UsageDTO {
	out := make(map[string]UsageDTO, len(meResources))
	for _, resource := range meResources {
		dto := UsageDTO{}
		if svc != nil {
			if n, err := svc.GetUsage(ctx, userID, usagedomain.EntityUser, resource); err == nil {
				dto.Used = n
			}
		}
		if limit, ok := tier.LimitFor(resource); ok {
			l := limit
			dto.Limit = &l
		}
		out[resource] = dto
	}
	return out
}
