package routes

import (
	"github.com/gin-gonic/gin"

	"sabohub/internal/controllers"
	"sabohub/internal/middleware"
)

// SalesRoutes mounts the route registry, stop lists, optimization and
// performance endpoints. Reads are open to every role; writes need a manager.
func SalesRoutes(api *gin.RouterGroup, rc *controllers.RouteController, oc *controllers.OptimizationController) {
	manager := middleware.RequireRole(managerRoles...)

	routes := api.Group("/routes")
	{
		routes.GET("", rc.List)
		routes.POST("", manager, rc.Create)
		routes.GET("/:id", rc.Get)
		routes.PUT("/:id", manager, rc.Update)
		routes.DELETE("/:id", manager, rc.Deactivate)

		routes.GET("/:id/customers", rc.ListStops)
		routes.POST("/:id/customers", manager, rc.AddStop)
		routes.DELETE("/:id/customers/:stopId", manager, rc.RemoveStop)

		routes.POST("/:id/optimize", manager, oc.Optimize)
		routes.GET("/:id/optimizations", oc.ListByRoute)
		routes.GET("/:id/performance", rc.Performance)
	}

	optimizations := api.Group("/optimizations")
	{
		optimizations.GET("/:id", oc.Get)
		optimizations.POST("/:id/apply", manager, oc.Apply)
	}
}
