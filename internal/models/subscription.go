package models

import "time"

// SubscriptionTier is the billing plan of an organization.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "FREE"
	TierBasic      SubscriptionTier = "BASIC"
	TierPro        SubscriptionTier = "PRO"
	TierEnterprise SubscriptionTier = "ENTERPRISE"
)

// SubscriptionStatusActive marks a subscription in good standing.
const SubscriptionStatusActive = "active"

// Subscription holds the billing plan of one organization.
type Subscription struct {
	BaseModel

	OrganizationID   string           `gorm:"type:uuid;not null;uniqueIndex" json:"organization_id"`
	Tier             SubscriptionTier `gorm:"type:varchar(16);not null;default:FREE" json:"tier"`
	Status           string           `gorm:"not null;default:active" json:"status"`
	CurrentPeriodEnd *time.Time       `json:"current_period_end"`
}
