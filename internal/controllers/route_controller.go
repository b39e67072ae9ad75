package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sabohub/internal/geo"
	"sabohub/internal/models"
	"sabohub/internal/services"
)

// RouteResponse is a route with its stored WKB line rendered as GeoJSON.
type RouteResponse struct {
	models.Route
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

func toRouteResponse(route models.Route) RouteResponse {
	resp := RouteResponse{Route: route}
	jsonGeom, err := geo.WKBToGeoJSON(route.Geometry)
	if err != nil {
		logrus.WithError(err).WithField("route_id", route.ID).Warn("Stored route geometry is not valid WKB")
		return resp
	}
	if jsonGeom != "" {
		resp.Geometry = json.RawMessage(jsonGeom)
	}
	return resp
}

type RouteController struct {
	routes      *services.RouteService
	performance *services.PerformanceService
}

func NewRouteController(routes *services.RouteService, performance *services.PerformanceService) *RouteController {
	return &RouteController{routes: routes, performance: performance}
}

func (rc *RouteController) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var input services.RouteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	route, err := rc.routes.CreateRoute(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"route": toRouteResponse(*route)})
}

// List accepts ?rep_id= and ?active=true. Reps only ever see their own routes.
func (rc *RouteController) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	filter := services.RouteFilter{ActiveOnly: c.Query("active") == "true"}
	if c.Query("rep_id") != "" {
		repID, ok := uintQuery(c, "rep_id")
		if !ok {
			return
		}
		filter.RepID = repID
	}

	routes, err := rc.routes.ListRoutes(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]RouteResponse, len(routes))
	for i, r := range routes {
		out[i] = toRouteResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (rc *RouteController) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	route, err := rc.routes.GetRoute(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(*route)})
}

func (rc *RouteController) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var input services.RouteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	route, err := rc.routes.UpdateRoute(c.Request.Context(), actor, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(*route)})
}

// Deactivate handles DELETE /routes/:id. Routes are never hard-deleted.
func (rc *RouteController) Deactivate(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := rc.routes.DeactivateRoute(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Route deactivated"})
}

func (rc *RouteController) ListStops(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	stops, err := rc.routes.ListStops(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stops})
}

func (rc *RouteController) AddStop(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var input services.StopInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stop, err := rc.routes.AddStop(c.Request.Context(), actor, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"route_customer": stop})
}

func (rc *RouteController) RemoveStop(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	stopID, ok := uintParam(c, "stopId")
	if !ok {
		return
	}
	if err := rc.routes.RemoveStop(c.Request.Context(), actor, id, stopID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer removed from route"})
}

// Performance handles GET /routes/:id/performance?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (rc *RouteController) Performance(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	perf, err := rc.performance.RoutePerformance(c.Request.Context(), actor, id, c.Query("start"), c.Query("end"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"performance": perf})
}
