package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strivetech/saiplatform/internal/middleware"
	"github.com/strivetech/saiplatform/internal/models"
	"github.com/strivetech/saiplatform/internal/services"
	apperrors "github.com/strivetech/saiplatform/pkg/errors"
	"github.com/strivetech/saiplatform/pkg/response"
)

// MeHandler describes the authenticated user.
type MeHandler struct {
	queries  *services.OrganizationQueries
	resolver *services.ActiveOrganizationResolver
}

// NewMeHandler constructs a MeHandler.
func NewMeHandler(queries *services.OrganizationQueries, resolver *services.ActiveOrganizationResolver) (*MeHandler, error) {
	if queries == nil || resolver == nil {
		return nil, errors.New("me handler: services are required")
	}
	return &MeHandler{queries: queries, resolver: resolver}, nil
}

type meResponse struct {
	User               *models.User                `json:"user"`
	Memberships        []models.OrganizationMember `json:"memberships"`
	ActiveOrganization *models.Organization        `json:"active_organization"`
	ActiveRole         models.MemberRole           `json:"active_role,omitempty"`
}

// GET /api/me
func (h *MeHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	ctx := requestContext(c)
	memberships, err := h.queries.GetUserOrganizations(ctx, user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	active, err := h.resolver.Resolve(ctx, user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload := meResponse{User: user, Memberships: memberships}
	if active != nil {
		payload.ActiveOrganization = active.Organization
		payload.ActiveRole = active.Role
	}
	response.Success(c, http.StatusOK, payload)
}
