package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sabohub/internal/apperr"
	"sabohub/internal/models"
)

func completedPlan(planned, done int, km float64, minutes int) models.JourneyPlan {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(minutes) * time.Minute)
	return models.JourneyPlan{
		Status:           models.JourneyStatusCompleted,
		PlannedVisits:    planned,
		CompletedVisits:  done,
		ActualDistanceKm: decimal.NewFromFloat(km),
		ActualStartTime:  &start,
		ActualEndTime:    &end,
	}
}

func TestComputeRoutePerformance_Empty(t *testing.T) {
	got := ComputeRoutePerformance(nil)
	if got != (RoutePerformance{}) {
		t.Errorf("ComputeRoutePerformance(nil) = %+v, want zero value", got)
	}
}

func TestComputeRoutePerformance_Aggregates(t *testing.T) {
	plans := []models.JourneyPlan{
		completedPlan(5, 5, 10.5, 60),
		completedPlan(5, 3, 4.5, 90),
		{Status: models.JourneyStatusCancelled, PlannedVisits: 4},
		{Status: models.JourneyStatusDraft, PlannedVisits: 6},
	}

	got := ComputeRoutePerformance(plans)

	checks := []struct {
		name      string
		got, want float64
	}{
		{"total journeys", float64(got.TotalJourneys), 4},
		{"completed journeys", float64(got.CompletedJourneys), 2},
		{"cancelled journeys", float64(got.CancelledJourneys), 1},
		{"completion rate", got.CompletionRate, 50},
		{"planned visits", float64(got.TotalPlannedVisits), 20},
		{"completed visits", float64(got.TotalCompletedVisits), 8},
		{"visit completion rate", got.VisitCompletionRate, 40},
		{"avg visits per journey", got.AvgVisitsPerJourney, 2},
		{"total distance", got.TotalDistanceKm, 15},
		{"avg distance", got.AvgDistanceKm, 7.5},
		{"total duration", got.TotalDurationMinutes, 150},
		{"avg duration", got.AvgDurationMinutes, 75},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestComputeRoutePerformance_NoCompletedJourneys(t *testing.T) {
	got := ComputeRoutePerformance([]models.JourneyPlan{
		{Status: models.JourneyStatusCancelled, PlannedVisits: 3},
	})
	if got.AvgDistanceKm != 0 || got.AvgDurationMinutes != 0 || got.CompletionRate != 0 {
		t.Errorf("got %+v, want zero averages", got)
	}
	if got.TotalJourneys != 1 || got.CancelledJourneys != 1 {
		t.Errorf("got %+v, want one cancelled journey", got)
	}
}

func TestRoutePerformance_DateRange(t *testing.T) {
	f := newFixture()
	route := f.seedRoute([2]float64{1, 1})
	svc := NewPerformanceService(f.routes, f.journeys)
	ctx := context.Background()

	if _, err := svc.RoutePerformance(ctx, f.manager, route.ID, "2026-03-10", "2026-03-01"); !apperr.IsValidation(err) {
		t.Errorf("inverted range error = %v, want validation", err)
	}
	if _, err := svc.RoutePerformance(ctx, f.manager, route.ID, "yesterday", "2026-03-01"); !apperr.IsValidation(err) {
		t.Errorf("bad start error = %v, want validation", err)
	}

	createPlan(t, f, route)
	got, err := svc.RoutePerformance(ctx, f.manager, route.ID, "2026-03-01", "2026-03-31")
	if err != nil {
		t.Fatalf("RoutePerformance() error = %v", err)
	}
	if got.RouteID != route.ID || got.TotalJourneys != 1 || got.StartDate != "2026-03-01" {
		t.Errorf("RoutePerformance() = %+v", got)
	}
	if f.journeys.listFilter.RouteID != route.ID {
		t.Errorf("listed with route %d, want %d", f.journeys.listFilter.RouteID, route.ID)
	}
}
