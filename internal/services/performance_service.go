package services

import (
	"context"
	"fmt"
	"time"

	"sabohub/internal/apperr"
	"sabohub/internal/models"
)

// RoutePerformance aggregates journey outcomes of one route over a date range.
type RoutePerformance struct {
	RouteID   uint   `json:"route_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	TotalJourneys     int     `json:"total_journeys"`
	CompletedJourneys int     `json:"completed_journeys"`
	CancelledJourneys int     `json:"cancelled_journeys"`
	CompletionRate    float64 `json:"completion_rate"`

	TotalPlannedVisits   int     `json:"total_planned_visits"`
	TotalCompletedVisits int     `json:"total_completed_visits"`
	VisitCompletionRate  float64 `json:"visit_completion_rate"`
	AvgVisitsPerJourney  float64 `json:"avg_visits_per_journey"`

	TotalDistanceKm float64 `json:"total_distance_km"`
	AvgDistanceKm   float64 `json:"avg_distance_km"`

	TotalDurationMinutes float64 `json:"total_duration_minutes"`
	AvgDurationMinutes   float64 `json:"avg_duration_minutes"`
}

type PerformanceService struct {
	routes   RouteRepository
	journeys JourneyRepository
}

func NewPerformanceService(routes RouteRepository, journeys JourneyRepository) *PerformanceService {
	return &PerformanceService{routes: routes, journeys: journeys}
}

// RoutePerformance reads the route's journey plans dated within [start, end].
func (s *PerformanceService) RoutePerformance(ctx context.Context, actor Actor, routeID uint, start, end string) (*RoutePerformance, error) {
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, apperr.Validation("start must be YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, apperr.Validation("end must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, apperr.Validation("end is before start")
	}
	if _, err := s.routes.Get(ctx, actor.CompanyID, routeID); err != nil {
		return nil, err
	}

	plans, err := s.journeys.List(ctx, actor.CompanyID, JourneyFilter{RouteID: routeID, DateFrom: from, DateTo: to})
	if err != nil {
		return nil, fmt.Errorf("failed to load journey plans: %w", err)
	}

	perf := ComputeRoutePerformance(plans)
	perf.RouteID = routeID
	perf.StartDate = start
	perf.EndDate = end
	return &perf, nil
}

// ComputeRoutePerformance derives the aggregates from plans. Every ratio with
// a zero denominator is 0.
func ComputeRoutePerformance(plans []models.JourneyPlan) RoutePerformance {
	var p RoutePerformance
	p.TotalJourneys = len(plans)

	for _, plan := range plans {
		p.TotalPlannedVisits += plan.PlannedVisits
		p.TotalCompletedVisits += plan.CompletedVisits

		switch plan.Status {
		case models.JourneyStatusCompleted:
			p.CompletedJourneys++
			p.TotalDistanceKm += plan.ActualDistanceKm.InexactFloat64()
			if plan.ActualStartTime != nil && plan.ActualEndTime != nil {
				p.TotalDurationMinutes += plan.ActualEndTime.Sub(*plan.ActualStartTime).Minutes()
			}
		case models.JourneyStatusCancelled:
			p.CancelledJourneys++
		}
	}

	p.CompletionRate = percent(p.CompletedJourneys, p.TotalJourneys)
	p.VisitCompletionRate = percent(p.TotalCompletedVisits, p.TotalPlannedVisits)
	p.AvgVisitsPerJourney = ratio(float64(p.TotalCompletedVisits), p.TotalJourneys)
	p.AvgDistanceKm = ratio(p.TotalDistanceKm, p.CompletedJourneys)
	p.AvgDurationMinutes = ratio(p.TotalDurationMinutes, p.CompletedJourneys)
	return p
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func ratio(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
