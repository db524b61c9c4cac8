package models

// UserRole is the platform-wide role of a user, independent of any organization.
type UserRole string

const (
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleEmployee UserRole = "EMPLOYEE"
	UserRoleClient   UserRole = "CLIENT"
)

// Valid reports whether r is a known platform role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleEmployee, UserRoleClient:
		return true
	}
	return false
}

// User is a person known to the platform. Users created by an invitation have
// no ExternalID until they first authenticate.
type User struct {
	BaseModel

	Email  string   `gorm:"uniqueIndex;not null" json:"email"`
	Name   string   `json:"name"`
	Avatar string   `json:"avatar"`
	Role   UserRole `gorm:"type:varchar(16);not null;default:EMPLOYEE" json:"role"`

	ExternalID           *string `gorm:"uniqueIndex" json:"-"`
	ActiveOrganizationID *string `gorm:"type:uuid;index" json:"active_organization_id"`

	Memberships []OrganizationMember `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"memberships,omitempty"`
}

// IsPlaceholder reports whether the user was provisioned by an invitation and
// has not signed in yet.
func (u *User) IsPlaceholder() bool {
	return u.ExternalID == nil || *u.ExternalID == ""
}
