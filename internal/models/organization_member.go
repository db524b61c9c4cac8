package models

import "time"

// MemberRole is a user's role within a single organization.
type MemberRole string

const (
	MemberRoleOwner     MemberRole = "OWNER"
	MemberRoleAdmin     MemberRole = "ADMIN"
	MemberRoleModerator MemberRole = "MODERATOR"
	MemberRoleEmployee  MemberRole = "EMPLOYEE"
	MemberRoleClient    MemberRole = "CLIENT"
)

// Valid reports whether r is one of the enumerated member roles.
func (r MemberRole) Valid() bool {
	switch r {
	case MemberRoleOwner, MemberRoleAdmin, MemberRoleModerator, MemberRoleEmployee, MemberRoleClient:
		return true
	}
	return false
}

// Assignable reports whether r may be granted through an invite or role change.
// OWNER is only ever assigned when an organization is created.
func (r MemberRole) Assignable() bool {
	return r.Valid() && r != MemberRoleOwner
}

// OrganizationMember joins a user to an organization with a role. A user holds
// at most one membership per organization.
type OrganizationMember struct {
	BaseModel

	UserID         string     `gorm:"type:uuid;not null;uniqueIndex:idx_member_user_org" json:"user_id"`
	OrganizationID string     `gorm:"type:uuid;not null;uniqueIndex:idx_member_user_org;index" json:"organization_id"`
	Role           MemberRole `gorm:"type:varchar(16);not null" json:"role"`
	JoinedAt       time.Time  `gorm:"not null;index" json:"joined_at"`

	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}
