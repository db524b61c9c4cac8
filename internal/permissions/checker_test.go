package permissions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/strivetech/saiplatform/internal/database/testutil"
	"github.com/strivetech/saiplatform/internal/models"
)

func TestNewCheckerRequiresDB(t *testing.T) {
	_, err := NewChecker(nil)
	require.Error(t, err)
}

func TestCheckerUsesMembershipRole(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	checker, err := NewChecker(db)
	require.NoError(t, err)

	org := models.Organization{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(&org).Error)

	admin := models.User{Email: "admin@acme.test", Role: models.UserRoleEmployee}
	client := models.User{Email: "client@acme.test", Role: models.UserRoleClient}
	outsider := models.User{Email: "outsider@else.test", Role: models.UserRoleEmployee}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&client).Error)
	require.NoError(t, db.Create(&outsider).Error)

	now := time.Now()
	require.NoError(t, db.Create(&models.OrganizationMember{UserID: admin.ID, OrganizationID: org.ID, Role: models.MemberRoleAdmin, JoinedAt: now}).Error)
	require.NoError(t, db.Create(&models.OrganizationMember{UserID: client.ID, OrganizationID: org.ID, Role: models.MemberRoleClient, JoinedAt: now}).Error)

	ctx := context.Background()

	ok, err := checker.Check(ctx, admin.ID, org.ID, MemberInvite)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = checker.Check(ctx, client.ID, org.ID, MemberInvite)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = checker.Check(ctx, client.ID, org.ID, DashboardView)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = checker.Check(ctx, outsider.ID, org.ID, OrgView)
	require.NoError(t, err)
	require.False(t, ok, "non-members hold no capabilities")

	_, err = checker.Check(ctx, admin.ID, org.ID, "unknown.capability")
	require.ErrorIs(t, err, ErrUnknownCapability)

	_, err = checker.Check(ctx, "", org.ID, OrgView)
	require.Error(t, err)
}
