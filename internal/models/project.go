package models

// ProjectStatus tracks where a project is in its lifecycle.
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "PLANNING"
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusOnHold    ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusCancelled ProjectStatus = "CANCELLED"
)

type Project struct {
	BaseModel

	OrganizationID string        `gorm:"type:uuid;not null;index" json:"organization_id"`
	CustomerID     *string       `gorm:"type:uuid;index" json:"customer_id"`
	Name           string        `gorm:"not null" json:"name"`
	Description    string        `json:"description"`
	Status         ProjectStatus `gorm:"type:varchar(16);not null;default:PLANNING;index" json:"status"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Tasks    []Task    `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
}
