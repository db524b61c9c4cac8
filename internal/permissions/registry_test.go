package permissions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strivetech/saiplatform/internal/models"
)

func TestRegisterPreventsDuplicates(t *testing.T) {
	id := "test.unique.capability"
	require.NoError(t, Register(&Capability{ID: id}))
	t.Cleanup(func() { unregister(id) })

	err := Register(&Capability{ID: id})
	require.True(t, errors.Is(err, errDuplicateID))
}

func TestRegisterValidatesDefinition(t *testing.T) {
	require.ErrorIs(t, Register(nil), errNilCapability)
	require.ErrorIs(t, Register(&Capability{ID: "  "}), errEmptyID)
	require.ErrorIs(t, Register(&Capability{ID: "self", DependsOn: []string{"self"}}), errSelfDependency)
	require.ErrorIs(t, Register(&Capability{ID: "bad.role", Roles: []models.MemberRole{"ROOT"}}), errUnknownRole)
}

func TestResolveDependenciesReturnsTransitiveClosure(t *testing.T) {
	ids := []string{"cap.base", "cap.mid", "cap.top"}
	require.NoError(t, Register(&Capability{ID: ids[0]}))
	require.NoError(t, Register(&Capability{ID: ids[1], DependsOn: []string{ids[0]}}))
	require.NoError(t, Register(&Capability{ID: ids[2], DependsOn: []string{ids[1]}}))
	t.Cleanup(func() {
		for _, id := range ids {
			unregister(id)
		}
	})

	deps, err := ResolveDependencies(ids[2])
	require.NoError(t, err)
	require.ElementsMatch(t, []string{ids[0], ids[1]}, deps)
}

func TestResolveDependenciesDetectsCycles(t *testing.T) {
	const (
		first  = "cap.cycle.first"
		second = "cap.cycle.second"
	)
	require.NoError(t, Register(&Capability{ID: first, DependsOn: []string{second}}))
	require.NoError(t, Register(&Capability{ID: second, DependsOn: []string{first}}))
	t.Cleanup(func() {
		unregister(first)
		unregister(second)
	})

	_, err := ResolveDependencies(first)
	require.ErrorIs(t, err, ErrCircularDependency)
	require.False(t, Allows(models.MemberRoleOwner, first))
}

func TestBuiltInDependenciesAreValid(t *testing.T) {
	require.NoError(t, ValidateDependencies())
}

func TestAllowsMatrix(t *testing.T) {
	cases := []struct {
		role    models.MemberRole
		allowed []string
		denied  []string
	}{
		{
			role:    models.MemberRoleOwner,
			allowed: []string{OrgView, OrgUpdate, DashboardView, MemberInvite, MemberUpdateRole, MemberRemove},
		},
		{
			role:    models.MemberRoleAdmin,
			allowed: []string{OrgView, OrgUpdate, DashboardView, MemberInvite, MemberUpdateRole, MemberRemove},
		},
		{
			role:    models.MemberRoleModerator,
			allowed: []string{OrgView, DashboardView, ActivityView, MemberView},
			denied:  []string{OrgUpdate, MemberInvite, MemberUpdateRole, MemberRemove},
		},
		{
			role:    models.MemberRoleEmployee,
			allowed: []string{OrgView, DashboardView, MemberView},
			denied:  []string{MemberInvite, MemberUpdateRole, MemberRemove},
		},
		{
			role:    models.MemberRoleClient,
			allowed: []string{OrgView, DashboardView},
			denied:  []string{MemberInvite, MemberUpdateRole, MemberRemove},
		},
		{
			role:   models.MemberRole("GUEST"),
			denied: []string{OrgView, DashboardView, MemberInvite},
		},
	}

	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			for _, capability := range tc.allowed {
				require.True(t, Allows(tc.role, capability), "%s should allow %s", tc.role, capability)
			}
			for _, capability := range tc.denied {
				require.False(t, Allows(tc.role, capability), "%s should deny %s", tc.role, capability)
			}
		})
	}
}

func TestAllowsUnknownCapability(t *testing.T) {
	require.False(t, Allows(models.MemberRoleOwner, "does.not.exist"))
}

func TestCapabilitiesFor(t *testing.T) {
	caps := CapabilitiesFor(models.MemberRoleClient)
	require.Contains(t, caps, DashboardView)
	require.NotContains(t, caps, MemberInvite)
}
