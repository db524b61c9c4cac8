package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/strivetech/saiplatform/internal/app"
	iauth "github.com/strivetech/saiplatform/internal/auth"
	testutil "github.com/strivetech/saiplatform/internal/database/testutil"
	"github.com/strivetech/saiplatform/pkg/mail"
)

type discardMailer struct{}

func (discardMailer) Send(context.Context, mail.Message) error { return nil }

func routerDependencies(t *testing.T) Dependencies {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &app.Config{
		Server: app.ServerConfig{Port: 8000, PublicURL: "https://app.example.com"},
		Auth: app.AuthConfig{
			Provider: app.AuthProviderJWT,
			JWT:      app.JWTSettings{Secret: "router-test-secret", TTL: time.Minute},
		},
		Forms:      app.FormsConfig{Recipient: "inbox@example.com"},
		Monitoring: app.MonitoringConfig{Health: app.HealthConfig{Enabled: true}},
	}
	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	return Dependencies{
		DB:       testutil.MustOpenTestDB(t, testutil.WithAutoMigrate()),
		Config:   cfg,
		Verifier: jwtSvc,
		Mailer:   discardMailer{},
	}
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	cases := map[string]func(*Dependencies){
		"database": func(d *Dependencies) { d.DB = nil },
		"config":   func(d *Dependencies) { d.Config = nil },
		"verifier": func(d *Dependencies) { d.Verifier = nil },
		"mailer":   func(d *Dependencies) { d.Mailer = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			deps := routerDependencies(t)
			mutate(&deps)
			_, err := NewRouter(deps)
			require.Error(t, err)
			require.Contains(t, err.Error(), name)
		})
	}
}

func TestRouterPublicAndProtectedRoutes(t *testing.T) {
	router, err := NewRouter(routerDependencies(t))
	require.NoError(t, err)
	t.Cleanup(router.Wait)

	// Health is public without a manager.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	for _, path := range []string{"/api/me", "/api/orgs", "/api/dashboard"} {
		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "ROUTE_NOT_FOUND")
}

func TestRouterMetricsDisabled(t *testing.T) {
	router, err := NewRouter(routerDependencies(t))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterWaitOnNil(t *testing.T) {
	var router *Router
	require.NotPanics(t, router.Wait)
}
