package models

type Customer struct {
	BaseModel

	OrganizationID string `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string `gorm:"not null" json:"name"`
	Email          string `json:"email"`
	Company        string `json:"company"`
}
