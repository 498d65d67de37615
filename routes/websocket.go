package routes

import (
	"github.com/gin-gonic/gin"

	"promptvault/middleware"
	"promptvault/services"
)

// RegisterWebSocketRoutes exposes the event stream the UI subscribes to.
func RegisterWebSocketRoutes(router *gin.Engine, authService services.AuthServiceInterface, wsService services.WebSocketServiceInterface) {
	wsGroup := router.Group("/api/v1/ws")
	wsGroup.Use(middleware.AuthMiddleware(authService))
	{
		wsGroup.GET("", func(c *gin.Context) {
			wsService.HandleConnection(c.Writer, c.Request)
		})
	}
}
