package services

import (
	"context"
	"errors"

	"github.com/strivetech/saiplatform/internal/cache"
	"github.com/strivetech/saiplatform/internal/models"
	"github.com/strivetech/saiplatform/internal/permissions"
	apperrors "github.com/strivetech/saiplatform/pkg/errors"
)

// DashboardData is the payload of the dashboard view.
type DashboardData struct {
	Stats        DashboardStats       `json:"stats"`
	Organization *models.Organization `json:"organization"`
}

// DashboardService serves dashboard views for the current actor.
type DashboardService struct {
	queries  *DashboardQueries
	resolver *ActiveOrganizationResolver
	views    *cache.ViewCache
}

// NewDashboardService constructs a DashboardService. views may be nil to
// disable caching.
func NewDashboardService(queries *DashboardQueries, resolver *ActiveOrganizationResolver, views *cache.ViewCache) (*DashboardService, error) {
	if queries == nil {
		return nil, errors.New("dashboard service: queries are required")
	}
	if resolver == nil {
		return nil, errors.New("dashboard service: organization resolver is required")
	}
	return &DashboardService{queries: queries, resolver: resolver, views: views}, nil
}

// FetchDashboardData returns the stats of the actor's active organization. A
// user without memberships receives empty stats and no organization.
func (s *DashboardService) FetchDashboardData(ctx context.Context) (*DashboardData, error) {
	ctx = ensureContext(ctx)
	member, err := s.activeMembership(ctx, permissions.DashboardView)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return &DashboardData{Stats: EmptyStats()}, nil
	}

	orgID := member.OrganizationID
	stats, err := cache.Remember(ctx, s.views, cache.RouteDashboard, orgID, "stats", func(ctx context.Context) (DashboardStats, error) {
		return s.queries.GetDashboardStats(ctx, orgID)
	})
	if err != nil {
		return nil, err
	}
	if stats.RecentActivity == nil {
		stats.RecentActivity = []ActivityItem{}
	}

	return &DashboardData{Stats: stats, Organization: member.Organization}, nil
}

// FetchActivityFeed returns the newest activity of the actor's active
// organization, or an empty list when the user has none.
func (s *DashboardService) FetchActivityFeed(ctx context.Context, limit int) ([]ActivityItem, error) {
	ctx = ensureContext(ctx)
	member, err := s.activeMembership(ctx, permissions.ActivityView)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return []ActivityItem{}, nil
	}
	return s.queries.GetActivityFeed(ctx, member.OrganizationID, limit)
}

func (s *DashboardService) activeMembership(ctx context.Context, capabilityID string) (*models.OrganizationMember, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	member, err := s.resolver.Resolve(ctx, actor.UserID)
	if err != nil || member == nil {
		return nil, err
	}
	if !permissions.Allows(member.Role, capabilityID) {
		return nil, apperrors.ErrForbidden
	}
	return member, nil
}
