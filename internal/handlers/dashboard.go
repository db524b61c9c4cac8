package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strivetech/saiplatform/internal/services"
	"github.com/strivetech/saiplatform/pkg/response"
)

// DashboardHandler serves the dashboard of the active organization.
type DashboardHandler struct {
	dashboard *services.DashboardService
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(dashboard *services.DashboardService) (*DashboardHandler, error) {
	if dashboard == nil {
		return nil, errors.New("dashboard handler: dashboard service is required")
	}
	return &DashboardHandler{dashboard: dashboard}, nil
}

// GET /api/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	data, err := h.dashboard.FetchDashboardData(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, data)
}

// GET /api/dashboard/activity?limit=
func (h *DashboardHandler) Activity(c *gin.Context) {
	limit := parseIntQuery(c, "limit", services.DefaultActivityFeedLimit)
	items, err := h.dashboard.FetchActivityFeed(requestContext(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Total: len(items), Limit: services.NormaliseFeedLimit(limit)})
}
