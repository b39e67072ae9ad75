package routes

import (
	"github.com/gin-gonic/gin"
	ginlog "github.com/gin-contrib/logger"
	"github.com/sirupsen/logrus"

	"sabohub/internal/controllers"
	"sabohub/internal/middleware"
	"sabohub/internal/models"
)

// Handlers bundles every controller the router mounts.
type Handlers struct {
	Auth          *controllers.AuthController
	Customers     *controllers.CustomerController
	Routes        *controllers.RouteController
	Optimizations *controllers.OptimizationController
	Journeys      *controllers.JourneyController
	Locations     *controllers.LocationController
	Hub           *controllers.LocationHub
	Health        *controllers.HealthController
}

// managerRoles may change routes and apply optimizations.
var managerRoles = []string{models.RoleManager, models.RoleAdmin}

func SetupRouter(h Handlers, jwt *middleware.JWT) *gin.Engine {
	r := gin.New()
	r.Use(
		ginlog.SetLogger(
			ginlog.WithWriter(logrus.StandardLogger().Out),
			ginlog.WithUTC(true),
			ginlog.WithSkipPath([]string{"/healthz"}),
		),
		gin.Recovery(),
	)

	if h.Health != nil {
		r.GET("/healthz", h.Health.Healthz)
	}

	AuthRoutes(r, h.Auth)

	api := r.Group("/api")
	api.Use(jwt.RequireAuth())
	UserRoutes(api, h.Auth)
	CustomerRoutes(api, h.Customers)
	SalesRoutes(api, h.Routes, h.Optimizations)
	JourneyRoutes(api, h.Journeys)
	LocationRoutes(api, h.Locations)

	WebSocketRoutes(r, jwt, h.Hub)
	return r
}
