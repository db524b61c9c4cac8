package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/strivetech/saiplatform/internal/permissions"
	apperrors "github.com/strivetech/saiplatform/pkg/errors"
	"github.com/strivetech/saiplatform/pkg/response"
)

// RequireCapability checks that the authenticated user holds capabilityID in
// the organization named by the orgParam route parameter.
func RequireCapability(checker *permissions.Checker, capabilityID, orgParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserIDKey)
		if userID == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		orgID := strings.TrimSpace(c.Param(orgParam))
		if orgID == "" {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}

		allowed, err := checker.Check(c.Request.Context(), userID, orgID, capabilityID)
		if err != nil {
			response.Error(c, apperrors.Storage(err, "capability check"))
			c.Abort()
			return
		}
		if !allowed {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
