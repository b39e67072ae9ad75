package routes

import (
	"github.com/gin-gonic/gin"

	"sabohub/internal/controllers"
)

func CustomerRoutes(api *gin.RouterGroup, cc *controllers.CustomerController) {
	customers := api.Group("/customers")
	{
		customers.GET("", cc.List)
		customers.POST("", cc.Create)
		customers.GET("/:id", cc.Get)
		customers.PUT("/:id", cc.Update)
	}
}
