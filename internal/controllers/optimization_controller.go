package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"sabohub/internal/services"
)

type optimizeInput struct {
	Strategy string `json:"strategy"`
}

type OptimizationController struct {
	optimizations *services.OptimizationService
}

func NewOptimizationController(optimizations *services.OptimizationService) *OptimizationController {
	return &OptimizationController{optimizations: optimizations}
}

// Optimize handles POST /routes/:id/optimize. The body is optional; an empty
// strategy selects the latitude sweep.
func (oc *OptimizationController) Optimize(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	routeID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var input optimizeInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s := c.Query("strategy"); s != "" {
		input.Strategy = s
	}

	entry, err := oc.optimizations.Optimize(c.Request.Context(), actor, routeID, input.Strategy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"optimization": entry})
}

func (oc *OptimizationController) ListByRoute(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	routeID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	logs, err := oc.optimizations.ListByRoute(c.Request.Context(), actor, routeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}

func (oc *OptimizationController) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	entry, err := oc.optimizations.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"optimization": entry})
}

func (oc *OptimizationController) Apply(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	entry, err := oc.optimizations.Apply(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"optimization": entry})
}
