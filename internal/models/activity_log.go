package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLog is an append-only event attached to an organization.
type ActivityLog struct {
	ID             string         `gorm:"primaryKey;type:uuid" json:"id"`
	OrganizationID string         `gorm:"type:uuid;not null;index:idx_activity_org_created,priority:1" json:"organization_id"`
	UserID         *string        `gorm:"type:uuid;index" json:"user_id"`
	User           *User          `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	Action         string         `gorm:"not null;index" json:"action"`
	EntityType     string         `gorm:"not null" json:"entity_type"`
	EntityID       string         `json:"entity_id"`
	Before         datatypes.JSON `json:"before,omitempty"`
	After          datatypes.JSON `json:"after,omitempty"`
	CreatedAt      time.Time      `gorm:"index;index:idx_activity_org_created,priority:2" json:"created_at"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
