package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/strivetech/saiplatform/internal/models"
)

const (
	DefaultRecentActivityLimit = 10
	DefaultActivityFeedLimit   = 20
	MaxActivityFeedLimit       = 100
)

// TierRevenue is the monthly price of each subscription tier.
var TierRevenue = map[models.SubscriptionTier]int{
	models.TierFree:       0,
	models.TierBasic:      299,
	models.TierPro:        699,
	models.TierEnterprise: 1499,
}

// ActivityActor identifies the user behind an activity entry.
type ActivityActor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// ActivityItem is an activity log entry as rendered in feeds.
type ActivityItem struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Before     datatypes.JSON `json:"before,omitempty"`
	After      datatypes.JSON `json:"after,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	User       *ActivityActor `json:"user"`
}

// DashboardStats aggregates the headline numbers of an organization.
type DashboardStats struct {
	Revenue            int            `json:"revenue"`
	Customers          int64          `json:"customers"`
	Projects           int64          `json:"projects"`
	ActiveProjects     int64          `json:"active_projects"`
	Tasks              int64          `json:"tasks"`
	CompletedTasks     int64          `json:"completed_tasks"`
	TeamMembers        int64          `json:"team_members"`
	TaskCompletionRate int            `json:"task_completion_rate"`
	RecentActivity     []ActivityItem `json:"recent_activity"`
}

// EmptyStats returns the stats of an organization with no data.
func EmptyStats() DashboardStats {
	return DashboardStats{RecentActivity: []ActivityItem{}}
}

// MonthlyRevenue returns the price of tier, zero for unknown tiers.
func MonthlyRevenue(tier models.SubscriptionTier) int {
	return TierRevenue[tier]
}

// CompletionRate returns round(100*completed/total), or 0 when total is 0.
func CompletionRate(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// DashboardQueries computes per-organization dashboard aggregates.
type DashboardQueries struct {
	db          *gorm.DB
	recentLimit int
}

// NewDashboardQueries constructs DashboardQueries. recentLimit bounds the
// activity entries embedded in stats; non-positive values use the default.
func NewDashboardQueries(db *gorm.DB, recentLimit int) (*DashboardQueries, error) {
	if db == nil {
		return nil, errors.New("dashboard queries: db is required")
	}
	if recentLimit <= 0 {
		recentLimit = DefaultRecentActivityLimit
	}
	return &DashboardQueries{db: db, recentLimit: recentLimit}, nil
}

// GetDashboardStats runs the independent aggregate reads for orgID concurrently
// and combines them.
func (q *DashboardQueries) GetDashboardStats(ctx context.Context, orgID string) (DashboardStats, error) {
	ctx = ensureContext(ctx)
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return EmptyStats(), nil
	}

	var (
		stats     DashboardStats
		tier      models.SubscriptionTier
		recent    []ActivityItem
		completed int64
	)

	g, gctx := errgroup.WithContext(ctx)
	db := q.db.WithContext(gctx)

	g.Go(func() error {
		return db.Model(&models.Customer{}).
			Where("organization_id = ?", orgID).
			Count(&stats.Customers).Error
	})
	g.Go(func() error {
		return db.Model(&models.Project{}).
			Where("organization_id = ?", orgID).
			Count(&stats.Projects).Error
	})
	g.Go(func() error {
		return db.Model(&models.Project{}).
			Where("organization_id = ? AND status = ?", orgID, models.ProjectStatusActive).
			Count(&stats.ActiveProjects).Error
	})
	g.Go(func() error {
		return orgTasks(db, orgID).Count(&stats.Tasks).Error
	})
	g.Go(func() error {
		return orgTasks(db, orgID).
			Where("tasks.status = ?", models.TaskStatusCompleted).
			Count(&completed).Error
	})
	g.Go(func() error {
		return db.Model(&models.OrganizationMember{}).
			Where("organization_id = ?", orgID).
			Count(&stats.TeamMembers).Error
	})
	g.Go(func() error {
		var err error
		recent, err = q.activity(gctx, orgID, q.recentLimit)
		return err
	})
	g.Go(func() error {
		var subscription models.Subscription
		err := db.Select("tier").Where("organization_id = ?", orgID).Take(&subscription).Error
		if isNotFound(err) {
			return nil
		}
		tier = subscription.Tier
		return err
	})

	if err := g.Wait(); err != nil {
		return DashboardStats{}, storageError(err, "dashboard queries: stats")
	}

	stats.CompletedTasks = completed
	stats.Revenue = MonthlyRevenue(tier)
	stats.TaskCompletionRate = CompletionRate(completed, stats.Tasks)
	stats.RecentActivity = recent
	return stats, nil
}

// GetActivityFeed lists the newest activity of orgID. limit defaults to 20 and
// is capped at 100.
func (q *DashboardQueries) GetActivityFeed(ctx context.Context, orgID string, limit int) ([]ActivityItem, error) {
	ctx = ensureContext(ctx)
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return []ActivityItem{}, nil
	}

	items, err := q.activity(ctx, orgID, NormaliseFeedLimit(limit))
	if err != nil {
		return nil, storageError(err, "dashboard queries: activity feed")
	}
	return items, nil
}

func (q *DashboardQueries) activity(ctx context.Context, orgID string, limit int) ([]ActivityItem, error) {
	var logs []models.ActivityLog
	err := q.db.WithContext(ctx).
		Preload("User").
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	items := make([]ActivityItem, 0, len(logs))
	for _, log := range logs {
		item := ActivityItem{
			ID:         log.ID,
			Action:     log.Action,
			EntityType: log.EntityType,
			EntityID:   log.EntityID,
			Before:     log.Before,
			After:      log.After,
			CreatedAt:  log.CreatedAt,
		}
		if log.User != nil {
			item.User = &ActivityActor{
				ID:     log.User.ID,
				Name:   log.User.Name,
				Email:  log.User.Email,
				Avatar: log.User.Avatar,
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func orgTasks(db *gorm.DB, orgID string) *gorm.DB {
	return db.Model(&models.Task{}).
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("projects.organization_id = ?", orgID)
}

// NormaliseFeedLimit clamps an activity feed limit into [1, MaxActivityFeedLimit],
// substituting the default for non-positive values.
func NormaliseFeedLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultActivityFeedLimit
	case limit > MaxActivityFeedLimit:
		return MaxActivityFeedLimit
	default:
		return limit
	}
}
