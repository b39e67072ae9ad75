package routes

import (
	"github.com/gin-gonic/gin"

	"sabohub/internal/controllers"
)

func LocationRoutes(api *gin.RouterGroup, lc *controllers.LocationController) {
	locations := api.Group("/locations")
	{
		locations.POST("", lc.Record)
		locations.GET("/:repId/recent", lc.Recent)
	}
}
