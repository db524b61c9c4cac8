package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/strivetech/saiplatform/internal/requestctx"
	apperrors "github.com/strivetech/saiplatform/pkg/errors"
	"github.com/strivetech/saiplatform/pkg/response"
)

// OrganizationHeader selects the organization a request operates on.
const OrganizationHeader = "X-Organization-ID"

// ActiveOrganization copies the requested organization id from the
// X-Organization-ID header onto the request context. Membership is enforced
// by the services that consume it.
func ActiveOrganization() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := strings.TrimSpace(c.GetHeader(OrganizationHeader))
		if orgID == "" {
			c.Next()
			return
		}
		if _, err := uuid.Parse(orgID); err != nil {
			response.Error(c, apperrors.NewBadRequest(OrganizationHeader+" must be a valid identifier"))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(requestctx.WithOrganization(c.Request.Context(), orgID))
		c.Next()
	}
}
