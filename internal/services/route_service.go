package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"sabohub/internal/apperr"
	"sabohub/internal/geo"
	"sabohub/internal/models"
)

var (
	visitFrequencies = map[string]bool{"daily": true, "weekly": true, "biweekly": true, "monthly": true}
	weekdays         = map[string]bool{"mon": true, "tue": true, "wed": true, "thu": true, "fri": true, "sat": true, "sun": true}
	clockPattern     = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// RouteInput is the writable part of a route. Nil fields are left untouched
// on update.
type RouteInput struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	AssignedRepID  *uint    `json:"assigned_rep_id"`
	BackupRepID    *uint    `json:"backup_rep_id"`
	Region         *string  `json:"region"`
	Territory      *string  `json:"territory"`
	Channel        *string  `json:"channel"`
	VisitFrequency *string  `json:"visit_frequency"`
	VisitDays      []string `json:"visit_days"`
	IsActive       *bool    `json:"is_active"`
}

// StopInput adds a customer to a route. Zero VisitSequence appends the stop.
type StopInput struct {
	CustomerID              uint     `json:"customer_id" binding:"required"`
	VisitSequence           int      `json:"visit_sequence"`
	PreferredVisitTime      string   `json:"preferred_visit_time"`
	ExpectedDurationMinutes int      `json:"expected_duration_minutes"`
	VisitFrequency          string   `json:"visit_frequency"`
	VisitDays               []string `json:"visit_days"`
	Latitude                *float64 `json:"latitude"`
	Longitude               *float64 `json:"longitude"`
	Address                 string   `json:"address"`
	MustTakeOrder           bool     `json:"must_take_order"`
	MustTakePhoto           bool     `json:"must_take_photo"`
	MustCheckInventory      bool     `json:"must_check_inventory"`
}

// RouteService manages the route registry and each route's stop list.
type RouteService struct {
	routes    RouteRepository
	customers CustomerRepository
	users     UserRepository
}

func NewRouteService(routes RouteRepository, customers CustomerRepository, users UserRepository) *RouteService {
	return &RouteService{routes: routes, customers: customers, users: users}
}

// CreateRoute registers a new route; the repository allocates its RTnnnn code.
func (s *RouteService) CreateRoute(ctx context.Context, actor Actor, in RouteInput) (*models.Route, error) {
	if !actor.IsManager() {
		return nil, fmt.Errorf("only managers can create routes: %w", apperr.ErrForbidden)
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if in.AssignedRepID == nil || *in.AssignedRepID == 0 {
		return nil, apperr.Validation("assigned_rep_id is required")
	}

	route := &models.Route{CompanyID: actor.CompanyID, VisitFrequency: "weekly", IsActive: true}
	if err := s.applyRouteInput(ctx, actor, route, in); err != nil {
		return nil, err
	}
	if err := s.routes.Create(ctx, route); err != nil {
		return nil, fmt.Errorf("failed to create route: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"company_id": actor.CompanyID,
		"route_id":   route.ID,
		"code":       route.Code,
	}).Info("Route created")
	return route, nil
}

func (s *RouteService) GetRoute(ctx context.Context, actor Actor, id uint) (*models.Route, error) {
	route, err := s.routes.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	stops, err := s.routes.ListStops(ctx, actor.CompanyID, id, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load route customers: %w", err)
	}
	route.Customers = stops
	return route, nil
}

func (s *RouteService) ListRoutes(ctx context.Context, actor Actor, filter RouteFilter) ([]models.Route, error) {
	if !actor.IsManager() {
		filter.RepID = actor.UserID
	}
	return s.routes.List(ctx, actor.CompanyID, filter)
}

func (s *RouteService) UpdateRoute(ctx context.Context, actor Actor, id uint, in RouteInput) (*models.Route, error) {
	if !actor.IsManager() {
		return nil, fmt.Errorf("only managers can update routes: %w", apperr.ErrForbidden)
	}
	route, err := s.routes.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("name cannot be empty")
	}
	if err := s.applyRouteInput(ctx, actor, route, in); err != nil {
		return nil, err
	}
	if err := s.routes.Update(ctx, route); err != nil {
		return nil, fmt.Errorf("failed to update route: %w", err)
	}
	return route, nil
}

// DeactivateRoute soft-disables a route. Its stops and history are kept.
func (s *RouteService) DeactivateRoute(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsManager() {
		return fmt.Errorf("only managers can deactivate routes: %w", apperr.ErrForbidden)
	}
	if err := s.routes.SetActive(ctx, actor.CompanyID, id, false); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"company_id": actor.CompanyID, "route_id": id}).Info("Route deactivated")
	return nil
}

func (s *RouteService) ListStops(ctx context.Context, actor Actor, routeID uint) ([]models.RouteCustomer, error) {
	if _, err := s.routes.Get(ctx, actor.CompanyID, routeID); err != nil {
		return nil, err
	}
	return s.routes.ListStops(ctx, actor.CompanyID, routeID, false)
}

// AddStop puts a customer on a route. Coordinates and address fall back to
// the customer's own when not supplied.
func (s *RouteService) AddStop(ctx context.Context, actor Actor, routeID uint, in StopInput) (*models.RouteCustomer, error) {
	if !actor.IsManager() {
		return nil, fmt.Errorf("only managers can change route customers: %w", apperr.ErrForbidden)
	}
	if _, err := s.routes.Get(ctx, actor.CompanyID, routeID); err != nil {
		return nil, err
	}
	customer, err := s.customers.Get(ctx, actor.CompanyID, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := validateStopInput(in); err != nil {
		return nil, err
	}

	stop := &models.RouteCustomer{
		CompanyID:               actor.CompanyID,
		RouteID:                 routeID,
		CustomerID:              customer.ID,
		VisitSequence:           in.VisitSequence,
		PreferredVisitTime:      in.PreferredVisitTime,
		ExpectedDurationMinutes: in.ExpectedDurationMinutes,
		VisitFrequency:          in.VisitFrequency,
		VisitDays:               normalizeDays(in.VisitDays),
		Latitude:                in.Latitude,
		Longitude:               in.Longitude,
		Address:                 in.Address,
		MustTakeOrder:           in.MustTakeOrder,
		MustTakePhoto:           in.MustTakePhoto,
		MustCheckInventory:      in.MustCheckInventory,
		IsActive:                true,
	}
	if stop.Latitude == nil || stop.Longitude == nil {
		stop.Latitude, stop.Longitude = customer.Latitude, customer.Longitude
	}
	if stop.Address == "" {
		stop.Address = customer.Address
	}
	if stop.ExpectedDurationMinutes == 0 {
		stop.ExpectedDurationMinutes = 15
	}
	if stop.VisitFrequency == "" {
		stop.VisitFrequency = "weekly"
	}

	if err := s.routes.AddStop(ctx, stop); err != nil {
		return nil, fmt.Errorf("failed to add customer %d to route %d: %w", customer.ID, routeID, err)
	}
	stop.Customer = customer
	return stop, nil
}

func (s *RouteService) RemoveStop(ctx context.Context, actor Actor, routeID, stopID uint) error {
	if !actor.IsManager() {
		return fmt.Errorf("only managers can change route customers: %w", apperr.ErrForbidden)
	}
	return s.routes.RemoveStop(ctx, actor.CompanyID, routeID, stopID)
}

func (s *RouteService) applyRouteInput(ctx context.Context, actor Actor, route *models.Route, in RouteInput) error {
	if in.Name != nil {
		route.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		route.Description = *in.Description
	}
	if in.AssignedRepID != nil {
		if err := s.requireUser(ctx, actor, *in.AssignedRepID); err != nil {
			return err
		}
		route.AssignedRepID = *in.AssignedRepID
	}
	if in.BackupRepID != nil {
		if *in.BackupRepID == 0 {
			route.BackupRepID = nil
		} else {
			if err := s.requireUser(ctx, actor, *in.BackupRepID); err != nil {
				return err
			}
			id := *in.BackupRepID
			route.BackupRepID = &id
		}
	}
	if in.Region != nil {
		route.Region = *in.Region
	}
	if in.Territory != nil {
		route.Territory = *in.Territory
	}
	if in.Channel != nil {
		route.Channel = *in.Channel
	}
	if in.VisitFrequency != nil {
		if !visitFrequencies[*in.VisitFrequency] {
			return apperr.Validation("invalid visit_frequency %q", *in.VisitFrequency)
		}
		route.VisitFrequency = *in.VisitFrequency
	}
	if in.VisitDays != nil {
		days := normalizeDays(in.VisitDays)
		for _, d := range days {
			if !weekdays[d] {
				return apperr.Validation("invalid visit day %q", d)
			}
		}
		route.VisitDays = days
	}
	if in.IsActive != nil {
		route.IsActive = *in.IsActive
	}
	return nil
}

func (s *RouteService) requireUser(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.users.Get(ctx, actor.CompanyID, id); err != nil {
		return fmt.Errorf("rep %d: %w", id, err)
	}
	return nil
}

func validateStopInput(in StopInput) error {
	if in.VisitSequence < 0 {
		return apperr.Validation("visit_sequence must not be negative")
	}
	if in.PreferredVisitTime != "" && !clockPattern.MatchString(in.PreferredVisitTime) {
		return apperr.Validation("preferred_visit_time must be HH:MM")
	}
	if in.ExpectedDurationMinutes < 0 {
		return apperr.Validation("expected_duration_minutes must not be negative")
	}
	if in.VisitFrequency != "" && !visitFrequencies[in.VisitFrequency] {
		return apperr.Validation("invalid visit_frequency %q", in.VisitFrequency)
	}
	for _, d := range normalizeDays(in.VisitDays) {
		if !weekdays[d] {
			return apperr.Validation("invalid visit day %q", d)
		}
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return apperr.Validation("latitude and longitude must be given together")
	}
	if in.Latitude != nil && !(geo.Point{Lat: *in.Latitude, Lng: *in.Longitude}).Valid() {
		return apperr.Validation("coordinates out of range")
	}
	return nil
}

func normalizeDays(days []string) []string {
	if days == nil {
		return nil
	}
	out := make([]string, 0, len(days))
	for _, d := range days {
		d = strings.ToLower(strings.TrimSpace(d))
		if len(d) > 3 {
			d = d[:3]
		}
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}
