package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sabohub/internal/geo"
	"sabohub/internal/models"
	"sabohub/internal/services"
)

type cancelInput struct {
	Reason string `json:"reason"`
}

type JourneyController struct {
	journeys  *services.JourneyService
	locations *services.LocationService
}

func NewJourneyController(journeys *services.JourneyService, locations *services.LocationService) *JourneyController {
	return &JourneyController{journeys: journeys, locations: locations}
}

func (jc *JourneyController) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var input services.CreateJourneyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plan, err := jc.journeys.CreatePlan(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"journey": plan})
}

// List accepts ?route_id=, ?rep_id=, ?status=, ?from=YYYY-MM-DD and ?to=YYYY-MM-DD.
func (jc *JourneyController) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	filter := services.JourneyFilter{Status: c.Query("status")}
	if c.Query("route_id") != "" {
		if filter.RouteID, ok = uintQuery(c, "route_id"); !ok {
			return
		}
	}
	if c.Query("rep_id") != "" {
		if filter.RepID, ok = uintQuery(c, "rep_id"); !ok {
			return
		}
	}
	if filter.DateFrom, ok = dateQuery(c, "from"); !ok {
		return
	}
	if filter.DateTo, ok = dateQuery(c, "to"); !ok {
		return
	}

	plans, err := jc.journeys.ListPlans(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": plans})
}

func (jc *JourneyController) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	plan, err := jc.journeys.GetPlan(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"journey": plan})
}

func (jc *JourneyController) Start(c *gin.Context) {
	jc.transition(c, jc.journeys.Start)
}

func (jc *JourneyController) Complete(c *gin.Context) {
	jc.transition(c, jc.journeys.Complete)
}

func (jc *JourneyController) Cancel(c *gin.Context) {
	var input cancelInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	jc.transition(c, func(ctx context.Context, actor services.Actor, id uint) (*models.JourneyPlan, error) {
		return jc.journeys.Cancel(ctx, actor, id, input.Reason)
	})
}

func (jc *JourneyController) transition(c *gin.Context, fn func(context.Context, services.Actor, uint) (*models.JourneyPlan, error)) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	plan, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"journey": plan})
}

func (jc *JourneyController) CheckIn(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var input services.CheckinInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkin, err := jc.journeys.CheckIn(c.Request.Context(), actor, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"checkin": checkin})
}

func (jc *JourneyController) ListCheckins(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	checkins, err := jc.journeys.ListCheckins(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": checkins})
}

// CheckOut handles POST /checkins/:id/checkout.
func (jc *JourneyController) CheckOut(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var input services.CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkin, err := jc.journeys.CheckOut(c.Request.Context(), actor, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkin": checkin})
}

// Trail handles GET /journeys/:id/trail. The pings come back both raw and as
// a GeoJSON LineString in recording order.
func (jc *JourneyController) Trail(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	pings, err := jc.locations.Trail(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	points := services.TrailPoints(pings)
	resp := gin.H{
		"journey_id":  id,
		"points":      pings,
		"distance_km": geo.PathKm(points),
	}
	line, err := geo.LineStringGeoJSON(points)
	if err != nil {
		respondError(c, err)
		return
	}
	if line != nil {
		resp["geometry"] = json.RawMessage(line)
	}
	c.JSON(http.StatusOK, resp)
}

func dateQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}
