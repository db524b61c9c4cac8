package api

import (
	"github.com/gin-gonic/gin"

	"github.com/strivetech/saiplatform/internal/handlers"
)

func registerDashboardRoutes(api *gin.RouterGroup, handler *handlers.DashboardHandler) {
	dashboard := api.Group("/dashboard")
	dashboard.GET("", handler.Get)
	dashboard.GET("/activity", handler.Activity)
}
