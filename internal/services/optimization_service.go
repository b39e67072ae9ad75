package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"sabohub/internal/apperr"
	"sabohub/internal/geo"
	"sabohub/internal/models"
	"sabohub/internal/optimizer"
)

// OptimizationService proposes new visit orders for routes and applies them
// on request. Proposals never touch the live stops.
type OptimizationService struct {
	routes RouteRepository
	logs   OptimizationRepository
	now    func() time.Time
}

func NewOptimizationService(routes RouteRepository, logs OptimizationRepository) *OptimizationService {
	return &OptimizationService{routes: routes, logs: logs, now: time.Now}
}

// Optimize runs strategy over the route's active coordinate-bearing stops and
// stores the proposal as a RouteOptimizationLog.
func (s *OptimizationService) Optimize(ctx context.Context, actor Actor, routeID uint, strategyName string) (*models.RouteOptimizationLog, error) {
	if !actor.IsManager() {
		return nil, fmt.Errorf("only managers can optimize routes: %w", apperr.ErrForbidden)
	}
	strategy, err := optimizer.ForName(strategyName)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if _, err := s.routes.Get(ctx, actor.CompanyID, routeID); err != nil {
		return nil, err
	}
	stops, err := s.routes.ListStops(ctx, actor.CompanyID, routeID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load route customers: %w", err)
	}

	candidates := make([]optimizer.Stop, 0, len(stops))
	for _, st := range stops {
		if !st.HasCoordinates() {
			continue
		}
		candidates = append(candidates, optimizer.Stop{
			CustomerID: st.CustomerID,
			Sequence:   st.VisitSequence,
			Point:      geo.Point{Lat: *st.Latitude, Lng: *st.Longitude},
		})
	}

	res, err := optimizer.Optimize(candidates, strategy)
	if errors.Is(err, optimizer.ErrNotEnoughStops) {
		return nil, apperr.Validation("%s", err.Error())
	}
	if err != nil {
		return nil, fmt.Errorf("optimization failed: %w", err)
	}

	original, err := json.Marshal(res.OriginalIDs())
	if err != nil {
		return nil, err
	}
	optimized, err := json.Marshal(res.OptimizedIDs())
	if err != nil {
		return nil, err
	}

	entry := &models.RouteOptimizationLog{
		CompanyID:           actor.CompanyID,
		RouteID:             routeID,
		Strategy:            res.Strategy,
		OriginalSequence:    datatypes.JSON(original),
		OptimizedSequence:   datatypes.JSON(optimized),
		OriginalDistanceKm:  decimal.NewFromFloat(res.OriginalDistanceKm).Round(2),
		OptimizedDistanceKm: decimal.NewFromFloat(res.OptimizedDistanceKm).Round(2),
		DistanceSavedKm:     decimal.NewFromFloat(res.DistanceSavedKm).Round(2),
		ImprovementPercent:  decimal.NewFromFloat(res.ImprovementPercent).Round(2),
		CreatedBy:           actor.UserID,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to store optimization log: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"route_id":            routeID,
		"log_id":              entry.ID,
		"strategy":            res.Strategy,
		"stops":               len(candidates),
		"improvement_percent": entry.ImprovementPercent.String(),
	}).Info("Route optimization proposed")
	return entry, nil
}

func (s *OptimizationService) Get(ctx context.Context, actor Actor, id uint) (*models.RouteOptimizationLog, error) {
	return s.logs.Get(ctx, actor.CompanyID, id)
}

func (s *OptimizationService) ListByRoute(ctx context.Context, actor Actor, routeID uint) ([]models.RouteOptimizationLog, error) {
	if _, err := s.routes.Get(ctx, actor.CompanyID, routeID); err != nil {
		return nil, err
	}
	return s.logs.ListByRoute(ctx, actor.CompanyID, routeID)
}

// Apply commits a proposal onto the live stops. A log is applied at most once.
func (s *OptimizationService) Apply(ctx context.Context, actor Actor, logID uint) (*models.RouteOptimizationLog, error) {
	if !actor.IsManager() {
		return nil, fmt.Errorf("only managers can apply optimizations: %w", apperr.ErrForbidden)
	}
	entry, err := s.logs.Get(ctx, actor.CompanyID, logID)
	if err != nil {
		return nil, err
	}
	order, err := entry.OptimizedCustomerIDs()
	if err != nil {
		return nil, fmt.Errorf("corrupt optimized sequence on log %d: %w", logID, err)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("optimized sequence of log %d: %w", logID, apperr.ErrNotFound)
	}
	if entry.IsApplied {
		return nil, fmt.Errorf("optimization %d already applied: %w", logID, apperr.ErrConflict)
	}

	at := s.now().UTC()
	if err := s.logs.Apply(ctx, entry, order, actor.UserID, at); err != nil {
		return nil, err
	}
	entry.IsApplied = true
	entry.AppliedBy = &actor.UserID
	entry.AppliedAt = &at

	logrus.WithFields(logrus.Fields{
		"route_id":   entry.RouteID,
		"log_id":     entry.ID,
		"applied_by": actor.UserID,
		"stops":      len(order),
	}).Info("Route optimization applied")
	return entry, nil
}
