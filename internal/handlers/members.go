package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strivetech/saiplatform/internal/models"
	"github.com/strivetech/saiplatform/internal/services"
	"github.com/strivetech/saiplatform/pkg/response"
)

// MemberHandler serves endpoints addressing a single membership.
type MemberHandler struct {
	orgs *services.OrganizationService
}

// NewMemberHandler constructs a MemberHandler.
func NewMemberHandler(orgs *services.OrganizationService) (*MemberHandler, error) {
	if orgs == nil {
		return nil, errors.New("member handler: organization service is required")
	}
	return &MemberHandler{orgs: orgs}, nil
}

type updateMemberRoleRequest struct {
	Role models.MemberRole `json:"role"`
}

// PATCH /api/members/:id
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	var body updateMemberRoleRequest
	if !bindJSON(c, &body) {
		return
	}

	member, err := h.orgs.UpdateMemberRole(requestContext(c), services.UpdateMemberRoleInput{
		MemberID: c.Param("id"),
		Role:     body.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, member)
}

// DELETE /api/members/:id
func (h *MemberHandler) Remove(c *gin.Context) {
	if err := h.orgs.RemoveMemberFromOrganization(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}
