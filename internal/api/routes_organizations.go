package api

import (
	"github.com/gin-gonic/gin"

	"github.com/strivetech/saiplatform/internal/middleware"
	"github.com/strivetech/saiplatform/internal/permissions"
)

func registerOrganizationRoutes(api *gin.RouterGroup, h *routeHandlers) {
	orgs := api.Group("/orgs")
	{
		orgs.GET("", h.organizations.List)
		orgs.POST("", h.organizations.Create)
		orgs.GET("/slug-availability", h.organizations.SlugAvailability)
		orgs.GET("/by-slug/:slug", h.organizations.GetBySlug)
		orgs.GET("/:id", middleware.RequireCapability(h.checker, permissions.OrgView, "id"), h.organizations.Get)
		orgs.POST("/:id/activate", h.organizations.Activate)
		orgs.GET("/:id/members", middleware.RequireCapability(h.checker, permissions.MemberView, "id"), h.organizations.ListMembers)
		orgs.POST("/:id/members", h.organizations.InviteMember)
	}

	members := api.Group("/members")
	{
		members.PATCH("/:id", h.members.UpdateRole)
		members.DELETE("/:id", h.members.Remove)
	}
}
