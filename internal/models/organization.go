package models

// Organization is a tenant. Every business record hangs off an organization.
type Organization struct {
	BaseModel

	Name         string `gorm:"not null" json:"name"`
	Slug         string `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	Description  string `gorm:"size:500" json:"description"`
	BillingEmail string `json:"billing_email"`

	Subscription *Subscription       `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"subscription,omitempty"`
	Members      []OrganizationMember `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}
