package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strivetech/saiplatform/internal/handlers/testutil"
	"github.com/strivetech/saiplatform/internal/models"
)

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/orgs", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = env.Request(http.MethodGet, "/api/me", nil, "not-a-token")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrganizationLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	owner, token := env.SignIn("owner@acme.test", "Olive Owner")

	org := env.CreateOrganization(token, "Acme Corp", "acme")
	require.NotEmpty(t, org.ID)
	require.Equal(t, "acme", org.Slug)

	w := env.Request(http.MethodPost, "/api/orgs", map[string]string{"name": "Other", "slug": "acme"}, token)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "ORGANIZATION_SLUG_TAKEN", testutil.DecodeResponse(t, w).Error.Code)

	w = env.Request(http.MethodGet, "/api/orgs/slug-availability?slug=ACME", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var availability struct {
		Slug      string `json:"slug"`
		Available bool   `json:"available"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &availability)
	require.Equal(t, "acme", availability.Slug)
	require.False(t, availability.Available)

	w = env.Request(http.MethodGet, "/api/orgs/slug-availability", nil, token)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Request(http.MethodGet, "/api/orgs", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	require.Equal(t, 1, resp.Meta.Total)
	var memberships []models.OrganizationMember
	testutil.DecodeInto(t, resp.Data, &memberships)
	require.Len(t, memberships, 1)
	require.Equal(t, owner.ID, memberships[0].UserID)
	require.Equal(t, models.MemberRoleOwner, memberships[0].Role)

	w = env.Request(http.MethodGet, "/api/orgs/"+org.ID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodGet, "/api/orgs/by-slug/acme", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var bySlug models.Organization
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &bySlug)
	require.Equal(t, org.ID, bySlug.ID)
}

func TestCreateOrganizationValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	_, token := env.SignIn("owner@acme.test", "Olive Owner")

	w := env.Request(http.MethodPost, "/api/orgs", map[string]string{"name": "A", "slug": "Not A Slug"}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.NotNil(t, resp.Error)
	require.NotEmpty(t, resp.Error.Fields)

	w = env.Request(http.MethodPost, "/api/orgs", "{", token)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrganizationHiddenFromNonMembers(t *testing.T) {
	env := testutil.NewEnv(t)
	_, ownerToken := env.SignIn("owner@acme.test", "Olive Owner")
	_, outsiderToken := env.SignIn("outsider@else.test", "Otto Outsider")
	org := env.CreateOrganization(ownerToken, "Acme Corp", "acme")

	w := env.Request(http.MethodGet, "/api/orgs/"+org.ID, nil, outsiderToken)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodGet, "/api/orgs/by-slug/acme", nil, outsiderToken)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "ORGANIZATION_NOT_FOUND", testutil.DecodeResponse(t, w).Error.Code)

	w = env.Request(http.MethodGet, "/api/orgs/by-slug/missing", nil, outsiderToken)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.Request(http.MethodGet, "/api/orgs/"+org.ID+"/members", nil, outsiderToken)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestActiveOrganizationSelection(t *testing.T) {
	env := testutil.NewEnv(t)
	_, token := env.SignIn("owner@acme.test", "Olive Owner")
	_, outsiderToken := env.SignIn("outsider@else.test", "Otto Outsider")
	first := env.CreateOrganization(token, "First Org", "first-org")
	second := env.CreateOrganization(token, "Second Org", "second-org")
	foreign := env.CreateOrganization(outsiderToken, "Foreign Org", "foreign-org")

	w := env.Request(http.MethodPost, "/api/orgs/"+first.ID+"/activate", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	activeSlug := func(headers map[string]string) string {
		t.Helper()
		w := env.RequestWithHeaders(http.MethodGet, "/api/me", nil, token, headers)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var me struct {
			ActiveOrganization *models.Organization `json:"active_organization"`
			ActiveRole         models.MemberRole    `json:"active_role"`
		}
		testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &me)
		require.NotNil(t, me.ActiveOrganization)
		require.Equal(t, models.MemberRoleOwner, me.ActiveRole)
		return me.ActiveOrganization.Slug
	}

	require.Equal(t, "first-org", activeSlug(nil))
	require.Equal(t, "second-org", activeSlug(map[string]string{"X-Organization-ID": second.ID}))

	w = env.RequestWithHeaders(http.MethodGet, "/api/me", nil, token, map[string]string{"X-Organization-ID": "not-a-uuid"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.RequestWithHeaders(http.MethodGet, "/api/dashboard", nil, token, map[string]string{"X-Organization-ID": foreign.ID})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "NOT_A_MEMBER", testutil.DecodeResponse(t, w).Error.Code)

	w = env.Request(http.MethodPost, "/api/orgs/"+foreign.ID+"/activate", nil, token)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "first-org", activeSlug(nil))
}
