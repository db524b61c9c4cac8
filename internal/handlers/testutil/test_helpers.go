package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/strivetech/saiplatform/internal/api"
	"github.com/strivetech/saiplatform/internal/app"
	iauth "github.com/strivetech/saiplatform/internal/auth"
	"github.com/strivetech/saiplatform/internal/cache"
	sharedtestutil "github.com/strivetech/saiplatform/internal/database/testutil"
	"github.com/strivetech/saiplatform/internal/middleware"
	"github.com/strivetech/saiplatform/internal/models"
	"github.com/strivetech/saiplatform/internal/monitoring"
	"github.com/strivetech/saiplatform/internal/monitoring/checks"
	"github.com/strivetech/saiplatform/pkg/mail"
	"github.com/strivetech/saiplatform/pkg/response"
)

const (
	jwtSecret = "test-suite-super-secret-key-32-bytes!!"
	jwtIssuer = "test-suite"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *api.Router
	JWT    *iauth.JWTService
	Config *app.Config
	Mailer *Mailer
}

// Option adjusts the configuration used to build an Env.
type Option func(*app.Config)

// WithFormRateLimit limits the marketing forms to max requests per window.
func WithFormRateLimit(max int, window time.Duration) Option {
	return func(cfg *app.Config) {
		cfg.Forms.RateLimit = max
		cfg.Forms.RateWindow = window
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	cfg := &app.Config{
		Server: app.ServerConfig{Port: 8000, PublicURL: "https://app.example.com"},
		Auth: app.AuthConfig{
			Provider: app.AuthProviderJWT,
			JWT:      app.JWTSettings{Secret: jwtSecret, Issuer: jwtIssuer, TTL: time.Hour},
		},
		Forms:      app.FormsConfig{Recipient: "inbox@example.com", SiteName: "Strive Tech"},
		Dashboard:  app.DashboardConfig{CacheTTL: time.Minute, RecentActivityLimit: 10},
		Monitoring: app.MonitoringConfig{Prometheus: app.PrometheusConfig{Enabled: true}, Health: app.HealthConfig{Enabled: true}},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	rateStore := middleware.NewMemoryRateStore(time.Minute)
	t.Cleanup(rateStore.Close)

	health := monitoring.NewHealthManager()
	health.RegisterReadiness(checks.Database(db, time.Second))

	mailer := &Mailer{}
	router, err := api.NewRouter(api.Dependencies{
		DB:        db,
		Config:    cfg,
		Verifier:  jwtSvc,
		Mailer:    mailer,
		Views:     cache.NewViewCache(cache.NewDatabaseStore(db), cfg.Dashboard.CacheTTL),
		RateStore: rateStore,
		Health:    health,
	})
	require.NoError(t, err)
	t.Cleanup(router.Wait)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		JWT:    jwtSvc,
		Config: cfg,
		Mailer: mailer,
	}
}

// Token mints an access token as the external auth provider would.
func (e *Env) Token(subject, email, name string) string {
	e.T.Helper()

	token, err := e.JWT.GenerateAccessToken(iauth.AccessTokenInput{
		Subject: subject,
		Email:   email,
		Name:    name,
	})
	require.NoError(e.T, err)
	return token
}

// SignIn mints a token for a new identity and performs a first request so the
// platform user is provisioned. It returns the user and the token.
func (e *Env) SignIn(email, name string) (*models.User, string) {
	e.T.Helper()

	token := e.Token("auth|"+uuid.NewString(), email, name)
	w := e.Request(http.MethodGet, "/api/me", nil, token)
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	var me struct {
		User models.User `json:"user"`
	}
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &me)
	require.NotEmpty(e.T, me.User.ID)
	return &me.User, token
}

// CreateOrganization creates an organization owned by the token's user.
func (e *Env) CreateOrganization(token, name, slug string) *models.Organization {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/orgs", map[string]string{"name": name, "slug": slug}, token)
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	var org models.Organization
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &org)
	return &org
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.RequestWithHeaders(method, path, body, token, nil)
}

// RequestWithHeaders is Request with additional request headers.
func (e *Env) RequestWithHeaders(method, path string, body any, token string, headers map[string]string) *httptest.ResponseRecorder {
	e.T.Helper()

	buf := bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Mailer records outbound messages instead of delivering them.
type Mailer struct {
	mu       sync.Mutex
	messages []mail.Message
	Err      error
}

// Send records msg, or returns Err when set.
func (m *Mailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *Mailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}
