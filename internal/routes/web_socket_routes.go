package routes

import (
	"github.com/gin-gonic/gin"

	"sabohub/internal/controllers"
	"sabohub/internal/middleware"
)

// WebSocketRoutes mounts the managers' live location feed. The token travels
// in the ?token= query parameter.
func WebSocketRoutes(r *gin.Engine, jwt *middleware.JWT, hub *controllers.LocationHub) {
	wsRoutes := r.Group("/ws")
	wsRoutes.Use(jwt.RequireAuth(), middleware.RequireRole(managerRoles...))
	{
		wsRoutes.GET("/locations", hub.HandleLocationWebSocket)
	}
}
