package permissions

import "github.com/strivetech/saiplatform/internal/models"

// Built-in capabilities.
const (
	OrgView          = "org.view"
	OrgUpdate        = "org.update"
	DashboardView    = "dashboard.view"
	ActivityView     = "activity.view"
	MemberView       = "member.view"
	MemberInvite     = "member.invite"
	MemberUpdateRole = "member.update_role"
	MemberRemove     = "member.remove"
)

var (
	everyRole = []models.MemberRole{
		models.MemberRoleOwner,
		models.MemberRoleAdmin,
		models.MemberRoleModerator,
		models.MemberRoleEmployee,
		models.MemberRoleClient,
	}
	managers = []models.MemberRole{
		models.MemberRoleOwner,
		models.MemberRoleAdmin,
	}
)

func init() {
	MustRegister(
		&Capability{ID: OrgView, Description: "View organization profile", Roles: everyRole},
		&Capability{ID: OrgUpdate, Description: "Edit organization profile", DependsOn: []string{OrgView}, Roles: managers},
		&Capability{ID: DashboardView, Description: "View dashboard statistics", DependsOn: []string{OrgView}, Roles: everyRole},
		&Capability{ID: ActivityView, Description: "View the activity feed", DependsOn: []string{OrgView}, Roles: everyRole},
		&Capability{ID: MemberView, Description: "List organization members", DependsOn: []string{OrgView}, Roles: everyRole},
		&Capability{ID: MemberInvite, Description: "Invite members", DependsOn: []string{MemberView}, Roles: managers},
		&Capability{ID: MemberUpdateRole, Description: "Change member roles", DependsOn: []string{MemberView}, Roles: managers},
		&Capability{ID: MemberRemove, Description: "Remove members", DependsOn: []string{MemberView}, Roles: managers},
	)
}
