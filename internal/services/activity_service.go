package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/strivetech/saiplatform/internal/models"
	"github.com/strivetech/saiplatform/pkg/logger"
)

// Activity actions recorded by the organization service.
const (
	ActionOrganizationCreated = "organization.created"
	ActionMemberInvited       = "member.invited"
	ActionMemberRoleUpdated   = "member.role_updated"
	ActionMemberRemoved       = "member.removed"
)

// ActivityEntry captures a single activity event to persist.
type ActivityEntry struct {
	OrganizationID string
	UserID         string
	Action         string
	EntityType     string
	EntityID       string
	Before         map[string]any
	After          map[string]any
}

// ActivityService persists organization activity and prunes old entries.
type ActivityService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewActivityService constructs an ActivityService using the provided database handle.
func NewActivityService(db *gorm.DB) (*ActivityService, error) {
	if db == nil {
		return nil, errors.New("activity service: db is required")
	}
	return &ActivityService{db: db, now: time.Now}, nil
}

// Record stores an activity entry, marshalling the before/after snapshots into JSON.
func (s *ActivityService) Record(ctx context.Context, entry ActivityEntry) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.OrganizationID) == "" {
		return errors.New("activity service: organization id is required")
	}
	if strings.TrimSpace(entry.Action) == "" {
		return errors.New("activity service: action is required")
	}

	before, err := encodeSnapshot(entry.Before)
	if err != nil {
		return fmt.Errorf("activity service: marshal before: %w", err)
	}
	after, err := encodeSnapshot(entry.After)
	if err != nil {
		return fmt.Errorf("activity service: marshal after: %w", err)
	}

	log := models.ActivityLog{
		OrganizationID: strings.TrimSpace(entry.OrganizationID),
		Action:         strings.TrimSpace(entry.Action),
		EntityType:     strings.TrimSpace(entry.EntityType),
		EntityID:       strings.TrimSpace(entry.EntityID),
		Before:         before,
		After:          after,
		CreatedAt:      s.now().UTC(),
	}
	if userID := strings.TrimSpace(entry.UserID); userID != "" {
		log.UserID = &userID
	}

	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		return fmt.Errorf("activity service: create log: %w", err)
	}
	return nil
}

// CleanupOlderThan deletes activity entries older than the retention window (in days).
func (s *ActivityService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)
	if retentionDays <= 0 {
		return 0, errors.New("activity service: retention days must be positive")
	}

	cutoff := s.now().UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ActivityLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("activity service: cleanup: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func encodeSnapshot(snapshot map[string]any) (datatypes.JSON, error) {
	if len(snapshot) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// recordActivity persists an activity entry without failing the calling operation.
func recordActivity(ctx context.Context, activity *ActivityService, entry ActivityEntry) {
	if activity == nil {
		return
	}
	if err := activity.Record(ctx, entry); err != nil {
		logger.WithModule("activity").Warn("failed to record activity",
			zap.String("action", entry.Action),
			zap.String("organization_id", entry.OrganizationID),
			zap.Error(err),
		)
	}
}
