package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/strivetech/saiplatform/internal/auth"
	"github.com/strivetech/saiplatform/internal/models"
	"github.com/strivetech/saiplatform/internal/requestctx"
	apperrors "github.com/strivetech/saiplatform/pkg/errors"
	"github.com/strivetech/saiplatform/pkg/response"
)

type stubResolver struct {
	user *models.User
	err  error
	seen []iauth.ExternalIdentity
}

func (s *stubResolver) Resolve(_ context.Context, identity iauth.ExternalIdentity) (*models.User, error) {
	s.seen = append(s.seen, identity)
	return s.user, s.err
}

func newTestJWT(t *testing.T) *iauth.JWTService {
	t.Helper()
	svc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "secret",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	jwtSvc := newTestJWT(t)
	token, err := jwtSvc.GenerateAccessToken(iauth.AccessTokenInput{
		Subject: "auth|123",
		Email:   "jane@acme.test",
		Name:    "Jane",
	})
	require.NoError(t, err)

	user := &models.User{Email: "jane@acme.test", Name: "Jane"}
	user.ID = "user-123"
	resolver := &stubResolver{user: user}

	r := gin.New()
	r.GET("/secure", Auth(jwtSvc, resolver), func(c *gin.Context) {
		actor, ok := requestctx.ActorFrom(c.Request.Context())
		current, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.GetString(CtxUserIDKey),
			"actor":    actor.UserID,
			"actor_ok": ok,
			"email":    current.Email,
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Equal(t, "user-123", payload["user_id"])
	require.Equal(t, "user-123", payload["actor"])
	require.Equal(t, true, payload["actor_ok"])
	require.Equal(t, "jane@acme.test", payload["email"])

	require.Len(t, resolver.seen, 1)
	require.Equal(t, "auth|123", resolver.seen[0].Subject)
}

func TestAuthMiddlewareRendersResolverErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	jwtSvc := newTestJWT(t)
	token, err := jwtSvc.GenerateAccessToken(iauth.AccessTokenInput{Subject: "auth|1", Email: "a@acme.test"})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/secure", Auth(jwtSvc, &stubResolver{err: apperrors.ErrStorageUnavailable}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Equal(t, apperrors.ErrStorageUnavailable.Code, payload.Error.Code)
	require.True(t, payload.Error.Retryable)
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer abc")
	require.True(t, ok)
	require.Equal(t, "abc", token)

	for _, header := range []string{"", "Bearer", "Bearer    ", "Basic abc"} {
		_, ok := bearerToken(header)
		require.False(t, ok, header)
	}
}
