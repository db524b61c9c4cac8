package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/strivetech/saiplatform/internal/auth"
	"github.com/strivetech/saiplatform/internal/models"
	"github.com/strivetech/saiplatform/internal/requestctx"
	apperrors "github.com/strivetech/saiplatform/pkg/errors"
	"github.com/strivetech/saiplatform/pkg/metrics"
	"github.com/strivetech/saiplatform/pkg/response"
)

const (
	CtxUserIDKey = "userID"
	CtxUserKey   = "user"
)

// IdentityResolver maps a verified identity onto a platform user.
type IdentityResolver interface {
	Resolve(ctx context.Context, identity iauth.ExternalIdentity) (*models.User, error)
}

// Auth verifies the bearer token, resolves the platform user and binds the
// actor to the request context.
func Auth(verifier iauth.Verifier, identities IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			metrics.AuthAttempts.WithLabelValues("missing").Inc()
			unauthorized(c)
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			unauthorized(c)
			return
		}

		user, err := identities.Resolve(c.Request.Context(), *identity)
		if err != nil {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			if errors.Is(err, apperrors.ErrUnauthorized) {
				unauthorized(c)
				return
			}
			response.Error(c, err)
			c.Abort()
			return
		}
		metrics.AuthAttempts.WithLabelValues("success").Inc()

		ctx := requestctx.WithActor(c.Request.Context(), requestctx.Actor{
			UserID:    user.ID,
			Email:     user.Email,
			Name:      user.Name,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxUserKey, user)

		c.Next()
	}
}

// CurrentUser returns the user resolved by Auth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, bool) {
	if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	response.Error(c, apperrors.ErrUnauthorized)
	c.Abort()
}
