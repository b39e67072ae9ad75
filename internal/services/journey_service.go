package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"sabohub/internal/apperr"
	"sabohub/internal/geo"
	"sabohub/internal/models"
)

// CreateJourneyInput instantiates a route for one day. When CustomerIDs is
// non-empty only those stops are planned, still in stored sequence order.
type CreateJourneyInput struct {
	RouteID          uint       `json:"route_id" binding:"required"`
	PlanDate         string     `json:"plan_date" binding:"required"` // YYYY-MM-DD
	RepID            uint       `json:"rep_id"`
	SupervisorID     *uint      `json:"supervisor_id"`
	CustomerIDs      []uint     `json:"customer_ids"`
	PlannedStartTime *time.Time `json:"planned_start_time"`
	PlannedEndTime   *time.Time `json:"planned_end_time"`
	Notes            string     `json:"notes"`
}

// CheckinInput records arrival at a stop.
type CheckinInput struct {
	CustomerID   uint     `json:"customer_id" binding:"required"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Accuracy     *float64 `json:"accuracy"`
	PhotoURL     string   `json:"photo_url"`
	VisitType    string   `json:"visit_type"`
	VisitPurpose string   `json:"visit_purpose"`
	Notes        string   `json:"notes"`
}

// CheckoutInput records departure from a stop.
type CheckoutInput struct {
	Latitude            *float64 `json:"latitude"`
	Longitude           *float64 `json:"longitude"`
	PhotoURL            string   `json:"photo_url"`
	CompletedActivities []string `json:"completed_activities"`
	Issues              string   `json:"issues"`
	Notes               string   `json:"notes"`
}

// JourneyService drives a journey plan through draft → in_progress →
// completed, or to cancelled from any non-terminal state, and records the
// visits made along the way.
type JourneyService struct {
	routes    RouteRepository
	journeys  JourneyRepository
	locations LocationRepository
	users     UserRepository
	now       func() time.Time
}

func NewJourneyService(routes RouteRepository, journeys JourneyRepository, locations LocationRepository, users UserRepository) *JourneyService {
	return &JourneyService{routes: routes, journeys: journeys, locations: locations, users: users, now: time.Now}
}

// CreatePlan freezes the route's stop list into a new draft plan.
func (s *JourneyService) CreatePlan(ctx context.Context, actor Actor, in CreateJourneyInput) (*models.JourneyPlan, error) {
	if !actor.IsManager() {
		in.RepID = actor.UserID
	}
	planDate, err := time.Parse("2006-01-02", in.PlanDate)
	if err != nil {
		return nil, apperr.Validation("plan_date must be YYYY-MM-DD")
	}
	if in.PlannedStartTime != nil && in.PlannedEndTime != nil && in.PlannedEndTime.Before(*in.PlannedStartTime) {
		return nil, apperr.Validation("planned_end_time is before planned_start_time")
	}

	route, err := s.routes.Get(ctx, actor.CompanyID, in.RouteID)
	if err != nil {
		return nil, err
	}
	if !route.IsActive {
		return nil, apperr.Validation("route %s is not active", route.Code)
	}
	if in.RepID == 0 {
		in.RepID = route.AssignedRepID
	}
	if _, err := s.users.Get(ctx, actor.CompanyID, in.RepID); err != nil {
		return nil, fmt.Errorf("rep %d: %w", in.RepID, err)
	}

	stops, err := s.routes.ListStops(ctx, actor.CompanyID, route.ID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load route customers: %w", err)
	}
	snapshot := plannedStops(stops, in.CustomerIDs)
	if len(in.CustomerIDs) > 0 && len(snapshot) == 0 {
		return nil, apperr.Validation("none of the requested customers are active on route %s", route.Code)
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}

	plan := &models.JourneyPlan{
		CompanyID:        actor.CompanyID,
		RouteID:          route.ID,
		PlanDate:         planDate,
		RepID:            in.RepID,
		SupervisorID:     in.SupervisorID,
		Status:           models.JourneyStatusDraft,
		PlannedCustomers: datatypes.JSON(raw),
		PlannedVisits:    len(snapshot),
		PlannedStartTime: in.PlannedStartTime,
		PlannedEndTime:   in.PlannedEndTime,
		Notes:            in.Notes,
	}
	if err := s.journeys.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create journey plan: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"plan_id":     plan.ID,
		"plan_number": plan.PlanNumber,
		"route_id":    route.ID,
		"rep_id":      plan.RepID,
		"stops":       plan.PlannedVisits,
	}).Info("Journey plan created")
	return plan, nil
}

func (s *JourneyService) GetPlan(ctx context.Context, actor Actor, id uint) (*models.JourneyPlan, error) {
	plan, err := s.journeys.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsManager() && plan.RepID != actor.UserID {
		return nil, fmt.Errorf("journey plan %d belongs to another rep: %w", id, apperr.ErrForbidden)
	}
	return plan, nil
}

func (s *JourneyService) ListPlans(ctx context.Context, actor Actor, filter JourneyFilter) ([]models.JourneyPlan, error) {
	if !actor.IsManager() {
		filter.RepID = actor.UserID
	}
	return s.journeys.List(ctx, actor.CompanyID, filter)
}

// Start moves a draft plan to in_progress.
func (s *JourneyService) Start(ctx context.Context, actor Actor, id uint) (*models.JourneyPlan, error) {
	if _, err := s.GetPlan(ctx, actor, id); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	return s.transition(ctx, actor, id, JourneyTransition{
		From:            []string{models.JourneyStatusDraft},
		To:              models.JourneyStatusInProgress,
		ActualStartTime: &now,
	})
}

// Complete closes an in-progress plan. The travelled distance is derived from
// the location pings recorded against the plan.
func (s *JourneyService) Complete(ctx context.Context, actor Actor, id uint) (*models.JourneyPlan, error) {
	if _, err := s.GetPlan(ctx, actor, id); err != nil {
		return nil, err
	}
	pings, err := s.locations.ForJourney(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load journey trail: %w", err)
	}
	distance := decimal.NewFromFloat(trailKm(pings)).Round(2)

	now := s.now().UTC()
	return s.transition(ctx, actor, id, JourneyTransition{
		From:             []string{models.JourneyStatusInProgress},
		To:               models.JourneyStatusCompleted,
		ActualEndTime:    &now,
		ActualDistanceKm: &distance,
	})
}

// Cancel abandons a plan that has not finished. The reason is kept in notes.
func (s *JourneyService) Cancel(ctx context.Context, actor Actor, id uint, reason string) (*models.JourneyPlan, error) {
	if _, err := s.GetPlan(ctx, actor, id); err != nil {
		return nil, err
	}
	t := JourneyTransition{
		From: []string{models.JourneyStatusDraft, models.JourneyStatusInProgress},
		To:   models.JourneyStatusCancelled,
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		t.AppendNote = "Cancelled: " + reason
	}
	return s.transition(ctx, actor, id, t)
}

func (s *JourneyService) transition(ctx context.Context, actor Actor, id uint, t JourneyTransition) (*models.JourneyPlan, error) {
	plan, err := s.journeys.Transition(ctx, actor.CompanyID, id, t)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"plan_id":  id,
		"status":   plan.Status,
		"actor_id": actor.UserID,
	}).Info("Journey plan status changed")
	return plan, nil
}

// CheckIn records arrival at a customer of an in-progress plan.
func (s *JourneyService) CheckIn(ctx context.Context, actor Actor, planID uint, in CheckinInput) (*models.JourneyCheckin, error) {
	plan, err := s.GetPlan(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != models.JourneyStatusInProgress {
		return nil, fmt.Errorf("cannot check in on a %s journey: %w", plan.Status, apperr.ErrInvalidTransition)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, apperr.Validation("latitude and longitude must be given together")
	}
	if in.Latitude != nil && !(geo.Point{Lat: *in.Latitude, Lng: *in.Longitude}).Valid() {
		return nil, apperr.Validation("coordinates out of range")
	}

	now := s.now().UTC()
	checkin := &models.JourneyCheckin{
		CompanyID:        actor.CompanyID,
		JourneyPlanID:    plan.ID,
		CustomerID:       in.CustomerID,
		RepID:            plan.RepID,
		CheckinTime:      &now,
		CheckinLatitude:  in.Latitude,
		CheckinLongitude: in.Longitude,
		CheckinAccuracy:  in.Accuracy,
		CheckinPhotoURL:  in.PhotoURL,
		VisitType:        in.VisitType,
		VisitPurpose:     in.VisitPurpose,
		Notes:            in.Notes,
		Status:           models.CheckinStatusCheckedIn,
	}
	if err := s.journeys.CreateCheckin(ctx, checkin); err != nil {
		return nil, fmt.Errorf("failed to create check-in: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"plan_id":        plan.ID,
		"checkin_id":     checkin.ID,
		"checkin_number": checkin.CheckinNumber,
		"customer_id":    in.CustomerID,
	}).Info("Customer check-in recorded")
	return checkin, nil
}

// CheckOut records departure. The visit duration is only set when the
// check-in time is known.
func (s *JourneyService) CheckOut(ctx context.Context, actor Actor, checkinID uint, in CheckoutInput) (*models.JourneyCheckin, error) {
	checkin, err := s.journeys.GetCheckin(ctx, actor.CompanyID, checkinID)
	if err != nil {
		return nil, err
	}
	if !actor.IsManager() && checkin.RepID != actor.UserID {
		return nil, fmt.Errorf("check-in %d belongs to another rep: %w", checkinID, apperr.ErrForbidden)
	}
	if checkin.Status != models.CheckinStatusCheckedIn {
		return nil, fmt.Errorf("check-in %d is %s: %w", checkinID, checkin.Status, apperr.ErrInvalidTransition)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, apperr.Validation("latitude and longitude must be given together")
	}

	now := s.now().UTC()
	u := CheckoutUpdate{
		CheckoutTime:         now,
		CheckoutLatitude:     in.Latitude,
		CheckoutLongitude:    in.Longitude,
		CheckoutPhotoURL:     in.PhotoURL,
		VisitDurationMinutes: VisitDurationMinutes(checkin.CheckinTime, now),
		CompletedActivities:  in.CompletedActivities,
		Issues:               in.Issues,
		Notes:                in.Notes,
	}
	updated, err := s.journeys.Checkout(ctx, actor.CompanyID, checkinID, u)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"plan_id":    updated.JourneyPlanID,
		"checkin_id": updated.ID,
	}).Info("Customer check-out recorded")
	return updated, nil
}

func (s *JourneyService) ListCheckins(ctx context.Context, actor Actor, planID uint) ([]models.JourneyCheckin, error) {
	if _, err := s.GetPlan(ctx, actor, planID); err != nil {
		return nil, err
	}
	return s.journeys.ListCheckins(ctx, actor.CompanyID, planID)
}

// VisitDurationMinutes is the whole-minute visit length, rounded half away
// from zero. It is nil when the check-in time is unknown.
func VisitDurationMinutes(checkinTime *time.Time, checkoutTime time.Time) *int {
	if checkinTime == nil || checkinTime.IsZero() {
		return nil
	}
	minutes := int(math.Round(checkoutTime.Sub(*checkinTime).Minutes()))
	return &minutes
}

func plannedStops(stops []models.RouteCustomer, only []uint) []models.PlannedStop {
	var want map[uint]bool
	if len(only) > 0 {
		want = make(map[uint]bool, len(only))
		for _, id := range only {
			want[id] = true
		}
	}

	out := make([]models.PlannedStop, 0, len(stops))
	for _, st := range stops {
		if want != nil && !want[st.CustomerID] {
			continue
		}
		ps := models.PlannedStop{
			RouteCustomerID:         st.ID,
			CustomerID:              st.CustomerID,
			VisitSequence:           st.VisitSequence,
			PreferredVisitTime:      st.PreferredVisitTime,
			ExpectedDurationMinutes: st.ExpectedDurationMinutes,
			Latitude:                st.Latitude,
			Longitude:               st.Longitude,
			Address:                 st.Address,
			MustTakeOrder:           st.MustTakeOrder,
			MustTakePhoto:           st.MustTakePhoto,
			MustCheckInventory:      st.MustCheckInventory,
		}
		if st.Customer != nil {
			ps.CustomerName = st.Customer.Name
		}
		out = append(out, ps)
	}
	return out
}

func trailKm(pings []models.LocationPing) float64 {
	points := make([]geo.Point, len(pings))
	for i, p := range pings {
		points[i] = geo.Point{Lat: p.Latitude, Lng: p.Longitude}
	}
	return geo.PathKm(points)
}
