package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sabohub/internal/services"
)

type LocationController struct {
	locations *services.LocationService
}

func NewLocationController(locations *services.LocationService) *LocationController {
	return &LocationController{locations: locations}
}

// Record handles POST /locations from a rep's device.
func (lc *LocationController) Record(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var input services.LocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location data: " + err.Error()})
		return
	}
	ping, err := lc.locations.Record(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"location": ping})
}

// Recent handles GET /locations/:repId/recent?limit=.
func (lc *LocationController) Recent(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	repID, ok := uintParam(c, "repId")
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}
	pings, err := lc.locations.Recent(c.Request.Context(), actor, repID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": pings})
}
