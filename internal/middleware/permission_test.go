package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/strivetech/saiplatform/internal/database/testutil"
	"github.com/strivetech/saiplatform/internal/models"
	"github.com/strivetech/saiplatform/internal/permissions"
)

func TestRequireCapabilityWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/orgs/:id", RequireCapability(&permissions.Checker{}, permissions.OrgView, "id"), func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/orgs/abc", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireCapabilityChecksMembership(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	org := &models.Organization{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(org).Error)
	member := &models.User{Email: "client@acme.test", Name: "Client"}
	require.NoError(t, db.Create(member).Error)
	require.NoError(t, db.Create(&models.OrganizationMember{
		UserID:         member.ID,
		OrganizationID: org.ID,
		Role:           models.MemberRoleClient,
		JoinedAt:       time.Now(),
	}).Error)

	checker, err := permissions.NewChecker(db)
	require.NoError(t, err)

	as := func(userID string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set(CtxUserIDKey, userID)
			c.Next()
		}
	}

	r := gin.New()
	r.GET("/orgs/:id", as(member.ID), RequireCapability(checker, permissions.OrgView, "id"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/orgs/:id/members", as(member.ID), RequireCapability(checker, permissions.MemberInvite, "id"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/other/:id", as("stranger"), RequireCapability(checker, permissions.OrgView, "id"), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/orgs/" + org.ID, http.StatusOK},
		{http.MethodPost, "/orgs/" + org.ID + "/members", http.StatusForbidden},
		{http.MethodGet, "/other/" + org.ID, http.StatusForbidden},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		r.ServeHTTP(w, req)
		require.Equal(t, tc.want, w.Code, "%s %s", tc.method, tc.path)
	}
}
