package routes

import (
	"github.com/gin-gonic/gin"

	"sabohub/internal/controllers"
)

func JourneyRoutes(api *gin.RouterGroup, jc *controllers.JourneyController) {
	journeys := api.Group("/journeys")
	{
		journeys.GET("", jc.List)
		journeys.POST("", jc.Create)
		journeys.GET("/:id", jc.Get)
		journeys.POST("/:id/start", jc.Start)
		journeys.POST("/:id/complete", jc.Complete)
		journeys.POST("/:id/cancel", jc.Cancel)
		journeys.GET("/:id/checkins", jc.ListCheckins)
		journeys.POST("/:id/checkins", jc.CheckIn)
		journeys.GET("/:id/trail", jc.Trail)
	}

	api.POST("/checkins/:id/checkout", jc.CheckOut)
}
