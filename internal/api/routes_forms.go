package api

import (
	"github.com/gin-gonic/gin"

	"github.com/strivetech/saiplatform/internal/handlers"
)

func registerFormRoutes(api *gin.RouterGroup, handler *handlers.FormHandler, limiter gin.HandlerFunc) {
	forms := api.Group("/forms")
	forms.Use(limiter)
	forms.POST("/contact", handler.Contact)
	forms.POST("/newsletter", handler.Newsletter)
	forms.POST("/request", handler.Request)
}
