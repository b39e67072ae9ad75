package routes

import (
	"github.com/gin-gonic/gin"

	"sabohub/internal/controllers"
	"sabohub/internal/middleware"
	"sabohub/internal/models"
)

func AuthRoutes(r *gin.Engine, ac *controllers.AuthController) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", ac.Signup)
		auth.POST("/login", ac.Login)
	}
}

// UserRoutes is the admin-only user management under /api.
func UserRoutes(api *gin.RouterGroup, ac *controllers.AuthController) {
	users := api.Group("/users")
	users.Use(middleware.RequireRole(models.RoleAdmin))
	{
		users.PUT("/:id/role", ac.ChangeRole)
	}
}
