package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/strivetech/saiplatform/internal/middleware"
	"github.com/strivetech/saiplatform/internal/models"
	"github.com/strivetech/saiplatform/internal/permissions"
	"github.com/strivetech/saiplatform/internal/services"
	apperrors "github.com/strivetech/saiplatform/pkg/errors"
	"github.com/strivetech/saiplatform/pkg/response"
)

// OrganizationHandler serves organization and membership endpoints.
type OrganizationHandler struct {
	orgs    *services.OrganizationService
	queries *services.OrganizationQueries
}

// NewOrganizationHandler constructs an OrganizationHandler.
func NewOrganizationHandler(orgs *services.OrganizationService, queries *services.OrganizationQueries) (*OrganizationHandler, error) {
	if orgs == nil || queries == nil {
		return nil, errors.New("organization handler: services are required")
	}
	return &OrganizationHandler{orgs: orgs, queries: queries}, nil
}

type inviteMemberRequest struct {
	Email string            `json:"email"`
	Role  models.MemberRole `json:"role"`
}

// GET /api/orgs
func (h *OrganizationHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	memberships, err := h.queries.GetUserOrganizations(requestContext(c), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, memberships, &response.Meta{Total: len(memberships)})
}

// POST /api/orgs
func (h *OrganizationHandler) Create(c *gin.Context) {
	var body services.CreateOrganizationInput
	if !bindJSON(c, &body) {
		return
	}

	org, err := h.orgs.CreateOrganization(requestContext(c), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, org)
}

// GET /api/orgs/slug-availability?slug=
func (h *OrganizationHandler) SlugAvailability(c *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(c.Query("slug")))
	if slug == "" {
		response.Error(c, apperrors.NewBadRequest("slug is required"))
		return
	}

	available, err := h.queries.CheckSlugAvailability(requestContext(c), slug)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"slug": slug, "available": available})
}

// GET /api/orgs/by-slug/:slug
func (h *OrganizationHandler) GetBySlug(c *gin.Context) {
	ctx := requestContext(c)
	org, err := h.queries.GetOrganizationBySlug(ctx, c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if org == nil {
		response.Error(c, services.ErrOrganizationNotFound)
		return
	}
	if err := h.orgs.RequireCapability(ctx, org.ID, permissions.OrgView); err != nil {
		// Non-members cannot probe which slugs exist.
		if apperrors.KindOf(err) == apperrors.KindForbidden {
			err = services.ErrOrganizationNotFound
		}
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, org)
}

// GET /api/orgs/:id
func (h *OrganizationHandler) Get(c *gin.Context) {
	org, err := h.queries.GetOrganization(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if org == nil {
		response.Error(c, services.ErrOrganizationNotFound)
		return
	}
	response.Success(c, http.StatusOK, org)
}

// POST /api/orgs/:id/activate
func (h *OrganizationHandler) Activate(c *gin.Context) {
	org, err := h.orgs.SetActiveOrganization(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, org)
}

// GET /api/orgs/:id/members
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	members, err := h.queries.GetOrganizationMembers(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, members, &response.Meta{Total: len(members)})
}

// POST /api/orgs/:id/members
func (h *OrganizationHandler) InviteMember(c *gin.Context) {
	var body inviteMemberRequest
	if !bindJSON(c, &body) {
		return
	}

	member, err := h.orgs.InviteTeamMember(requestContext(c), services.InviteMemberInput{
		OrganizationID: c.Param("id"),
		Email:          body.Email,
		Role:           body.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, member)
}
