package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"sabohub/internal/apperr"
	"sabohub/internal/models"
	"sabohub/internal/optimizer"
)

// ============================================================================
// In-memory repositories
// ============================================================================

type mockUserRepository struct {
	users  map[uint]*models.User
	nextID uint
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[uint]*models.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("users.email: %w", apperr.ErrConflict)
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user", email)
}

func (m *mockUserRepository) Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.User, error) {
	if u, ok := m.users[id]; ok && u.CompanyID == companyID {
		return u, nil
	}
	return nil, apperr.NotFound("user", id)
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, companyID uuid.UUID, id uint, role string) error {
	u, ok := m.users[id]
	if !ok || u.CompanyID != companyID {
		return apperr.NotFound("user", id)
	}
	u.Role = role
	return nil
}

type mockCompanyRepository struct {
	companies map[uuid.UUID]*models.Company
}

func newMockCompanyRepository() *mockCompanyRepository {
	return &mockCompanyRepository{companies: make(map[uuid.UUID]*models.Company)}
}

func (m *mockCompanyRepository) Create(ctx context.Context, c *models.Company) error {
	if c.CompanyID == uuid.Nil {
		c.CompanyID = uuid.New()
	}
	c.ID = uint(len(m.companies) + 1)
	m.companies[c.CompanyID] = c
	return nil
}

func (m *mockCompanyRepository) Get(ctx context.Context, companyID uuid.UUID) (*models.Company, error) {
	if c, ok := m.companies[companyID]; ok {
		return c, nil
	}
	return nil, apperr.NotFound("company", companyID)
}

type mockCustomerRepository struct {
	customers map[uint]*models.Customer
	nextID    uint
}

func newMockCustomerRepository() *mockCustomerRepository {
	return &mockCustomerRepository{customers: make(map[uint]*models.Customer)}
}

func (m *mockCustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	m.nextID++
	c.ID = m.nextID
	m.customers[c.ID] = c
	return nil
}

func (m *mockCustomerRepository) Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.Customer, error) {
	if c, ok := m.customers[id]; ok && c.CompanyID == companyID {
		return c, nil
	}
	return nil, apperr.NotFound("customer", id)
}

func (m *mockCustomerRepository) List(ctx context.Context, companyID uuid.UUID, filter CustomerFilter) ([]models.Customer, error) {
	var out []models.Customer
	for _, c := range m.customers {
		if c.CompanyID == companyID && (!filter.ActiveOnly || c.IsActive) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCustomerRepository) Update(ctx context.Context, c *models.Customer) error {
	m.customers[c.ID] = c
	return nil
}

type mockRouteRepository struct {
	routes     map[uint]*models.Route
	stops      map[uint]*models.RouteCustomer
	nextID     uint
	nextStopID uint
}

func newMockRouteRepository() *mockRouteRepository {
	return &mockRouteRepository{routes: make(map[uint]*models.Route), stops: make(map[uint]*models.RouteCustomer)}
}

func (m *mockRouteRepository) Create(ctx context.Context, r *models.Route) error {
	m.nextID++
	r.ID = m.nextID
	r.Code = fmt.Sprintf("RT%04d", r.ID)
	m.routes[r.ID] = r
	return nil
}

func (m *mockRouteRepository) Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.Route, error) {
	if r, ok := m.routes[id]; ok && r.CompanyID == companyID {
		cp := *r
		return &cp, nil
	}
	return nil, apperr.NotFound("route", id)
}

func (m *mockRouteRepository) List(ctx context.Context, companyID uuid.UUID, filter RouteFilter) ([]models.Route, error) {
	var out []models.Route
	for _, r := range m.routes {
		if r.CompanyID != companyID {
			continue
		}
		if filter.RepID != 0 && r.AssignedRepID != filter.RepID {
			continue
		}
		if filter.ActiveOnly && !r.IsActive {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockRouteRepository) Update(ctx context.Context, r *models.Route) error {
	cp := *r
	m.routes[r.ID] = &cp
	return nil
}

func (m *mockRouteRepository) SetActive(ctx context.Context, companyID uuid.UUID, id uint, active bool) error {
	r, ok := m.routes[id]
	if !ok || r.CompanyID != companyID {
		return apperr.NotFound("route", id)
	}
	r.IsActive = active
	return nil
}

func (m *mockRouteRepository) ListStops(ctx context.Context, companyID uuid.UUID, routeID uint, activeOnly bool) ([]models.RouteCustomer, error) {
	var out []models.RouteCustomer
	for _, s := range m.stops {
		if s.CompanyID == companyID && s.RouteID == routeID && (!activeOnly || s.IsActive) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VisitSequence != out[j].VisitSequence {
			return out[i].VisitSequence < out[j].VisitSequence
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *mockRouteRepository) AddStop(ctx context.Context, s *models.RouteCustomer) error {
	maxSeq := 0
	for _, existing := range m.stops {
		if existing.RouteID != s.RouteID {
			continue
		}
		if existing.CustomerID == s.CustomerID {
			return fmt.Errorf("route_customers: %w", apperr.ErrConflict)
		}
		if existing.VisitSequence > maxSeq {
			maxSeq = existing.VisitSequence
		}
	}
	if s.VisitSequence == 0 {
		s.VisitSequence = maxSeq + 1
	}
	m.nextStopID++
	s.ID = m.nextStopID
	cp := *s
	m.stops[s.ID] = &cp
	m.refresh(s.RouteID)
	return nil
}

func (m *mockRouteRepository) RemoveStop(ctx context.Context, companyID uuid.UUID, routeID, stopID uint) error {
	s, ok := m.stops[stopID]
	if !ok || s.RouteID != routeID || s.CompanyID != companyID {
		return apperr.NotFound("route customer", stopID)
	}
	delete(m.stops, stopID)
	m.refresh(routeID)
	return nil
}

func (m *mockRouteRepository) refresh(routeID uint) {
	r, ok := m.routes[routeID]
	if !ok {
		return
	}
	r.TotalCustomers, r.ActiveCustomers = 0, 0
	for _, s := range m.stops {
		if s.RouteID == routeID {
			r.TotalCustomers++
			if s.IsActive {
				r.ActiveCustomers++
			}
		}
	}
}

// sequences returns customer id -> visit sequence for a route.
func (m *mockRouteRepository) sequences(routeID uint) map[uint]int {
	out := make(map[uint]int)
	for _, s := range m.stops {
		if s.RouteID == routeID {
			out[s.CustomerID] = s.VisitSequence
		}
	}
	return out
}

type mockOptimizationRepository struct {
	routes     *mockRouteRepository
	logs       map[uint]*models.RouteOptimizationLog
	nextID     uint
	applyCalls int
}

func newMockOptimizationRepository(routes *mockRouteRepository) *mockOptimizationRepository {
	return &mockOptimizationRepository{routes: routes, logs: make(map[uint]*models.RouteOptimizationLog)}
}

func (m *mockOptimizationRepository) Create(ctx context.Context, l *models.RouteOptimizationLog) error {
	m.nextID++
	l.ID = m.nextID
	cp := *l
	m.logs[l.ID] = &cp
	return nil
}

func (m *mockOptimizationRepository) Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.RouteOptimizationLog, error) {
	if l, ok := m.logs[id]; ok && l.CompanyID == companyID {
		cp := *l
		return &cp, nil
	}
	return nil, apperr.NotFound("optimization log", id)
}

func (m *mockOptimizationRepository) ListByRoute(ctx context.Context, companyID uuid.UUID, routeID uint) ([]models.RouteOptimizationLog, error) {
	var out []models.RouteOptimizationLog
	for _, l := range m.logs {
		if l.CompanyID == companyID && l.RouteID == routeID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockOptimizationRepository) Apply(ctx context.Context, l *models.RouteOptimizationLog, order []uint, appliedBy uint, at time.Time) error {
	m.applyCalls++
	stored := m.logs[l.ID]
	if stored.IsApplied {
		return apperr.ErrConflict
	}
	stops, _ := m.routes.ListStops(ctx, l.CompanyID, l.RouteID, false)
	current := make([]uint, len(stops))
	for i, st := range stops {
		current[i] = st.CustomerID
	}
	sequences := optimizer.Resequence(order, current)
	for _, s := range m.routes.stops {
		if s.RouteID == l.RouteID {
			s.VisitSequence = sequences[s.CustomerID]
		}
	}
	stored.IsApplied = true
	stored.AppliedBy = &appliedBy
	stored.AppliedAt = &at
	return nil
}

type mockJourneyRepository struct {
	plans         map[uint]*models.JourneyPlan
	checkins      map[uint]*models.JourneyCheckin
	nextID        uint
	nextCheckinID uint
	listFilter    JourneyFilter
}

func newMockJourneyRepository() *mockJourneyRepository {
	return &mockJourneyRepository{plans: make(map[uint]*models.JourneyPlan), checkins: make(map[uint]*models.JourneyCheckin)}
}

func (m *mockJourneyRepository) Create(ctx context.Context, p *models.JourneyPlan) error {
	m.nextID++
	p.ID = m.nextID
	p.PlanNumber = fmt.Sprintf("JP-%s-%04d", p.PlanDate.Format("20060102"), p.ID)
	cp := *p
	m.plans[p.ID] = &cp
	return nil
}

func (m *mockJourneyRepository) Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.JourneyPlan, error) {
	if p, ok := m.plans[id]; ok && p.CompanyID == companyID {
		cp := *p
		return &cp, nil
	}
	return nil, apperr.NotFound("journey plan", id)
}

func (m *mockJourneyRepository) List(ctx context.Context, companyID uuid.UUID, filter JourneyFilter) ([]models.JourneyPlan, error) {
	m.listFilter = filter
	var out []models.JourneyPlan
	for _, p := range m.plans {
		if p.CompanyID != companyID {
			continue
		}
		if filter.RouteID != 0 && p.RouteID != filter.RouteID {
			continue
		}
		if filter.RepID != 0 && p.RepID != filter.RepID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if !filter.DateFrom.IsZero() && p.PlanDate.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && p.PlanDate.After(filter.DateTo) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockJourneyRepository) Transition(ctx context.Context, companyID uuid.UUID, id uint, t JourneyTransition) (*models.JourneyPlan, error) {
	p, ok := m.plans[id]
	if !ok || p.CompanyID != companyID {
		return nil, apperr.NotFound("journey plan", id)
	}
	allowed := false
	for _, from := range t.From {
		if p.Status == from {
			allowed = true
		}
	}
	if !allowed {
		return nil, fmt.Errorf("journey plan %d is %s: %w", id, p.Status, apperr.ErrInvalidTransition)
	}
	p.Status = t.To
	if t.ActualStartTime != nil {
		p.ActualStartTime = t.ActualStartTime
	}
	if t.ActualEndTime != nil {
		p.ActualEndTime = t.ActualEndTime
	}
	if t.ActualDistanceKm != nil {
		p.ActualDistanceKm = *t.ActualDistanceKm
	}
	if t.AppendNote != "" {
		if p.Notes != "" {
			p.Notes += "\n"
		}
		p.Notes += t.AppendNote
	}
	cp := *p
	return &cp, nil
}

func (m *mockJourneyRepository) CreateCheckin(ctx context.Context, c *models.JourneyCheckin) error {
	m.nextCheckinID++
	c.ID = m.nextCheckinID
	c.CheckinNumber = fmt.Sprintf("CI-%06d", c.ID)
	cp := *c
	m.checkins[c.ID] = &cp
	return nil
}

func (m *mockJourneyRepository) GetCheckin(ctx context.Context, companyID uuid.UUID, id uint) (*models.JourneyCheckin, error) {
	if c, ok := m.checkins[id]; ok && c.CompanyID == companyID {
		cp := *c
		return &cp, nil
	}
	return nil, apperr.NotFound("check-in", id)
}

func (m *mockJourneyRepository) ListCheckins(ctx context.Context, companyID uuid.UUID, planID uint) ([]models.JourneyCheckin, error) {
	var out []models.JourneyCheckin
	for _, c := range m.checkins {
		if c.CompanyID == companyID && c.JourneyPlanID == planID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockJourneyRepository) Checkout(ctx context.Context, companyID uuid.UUID, id uint, u CheckoutUpdate) (*models.JourneyCheckin, error) {
	c, ok := m.checkins[id]
	if !ok || c.CompanyID != companyID {
		return nil, apperr.NotFound("check-in", id)
	}
	if c.Status != models.CheckinStatusCheckedIn {
		return nil, apperr.ErrInvalidTransition
	}
	t := u.CheckoutTime
	c.CheckoutTime = &t
	c.CheckoutLatitude = u.CheckoutLatitude
	c.CheckoutLongitude = u.CheckoutLongitude
	c.VisitDurationMinutes = u.VisitDurationMinutes
	c.CompletedActivities = u.CompletedActivities
	c.Issues = u.Issues
	c.Status = models.CheckinStatusCheckedOut

	done := 0
	for _, other := range m.checkins {
		if other.JourneyPlanID == c.JourneyPlanID && other.Status == models.CheckinStatusCheckedOut {
			done++
		}
	}
	m.plans[c.JourneyPlanID].CompletedVisits = done
	cp := *c
	return &cp, nil
}

type mockLocationRepository struct {
	pings     []models.LocationPing
	nextID    uint
	lastLimit int
}

func (m *mockLocationRepository) Insert(ctx context.Context, p *models.LocationPing) (*models.LocationPing, bool, error) {
	if p.ClientPingID != nil {
		for i := range m.pings {
			existing := m.pings[i]
			if existing.RepID == p.RepID && existing.ClientPingID != nil && *existing.ClientPingID == *p.ClientPingID {
				return &existing, false, nil
			}
		}
	}
	m.nextID++
	p.ID = m.nextID
	m.pings = append(m.pings, *p)
	return p, true, nil
}

func (m *mockLocationRepository) Latest(ctx context.Context, companyID uuid.UUID, repID uint) (*models.LocationPing, error) {
	for i := len(m.pings) - 1; i >= 0; i-- {
		if m.pings[i].RepID == repID && m.pings[i].CompanyID == companyID {
			p := m.pings[i]
			return &p, nil
		}
	}
	return nil, apperr.NotFound("location", repID)
}

func (m *mockLocationRepository) Recent(ctx context.Context, companyID uuid.UUID, repID uint, limit int) ([]models.LocationPing, error) {
	m.lastLimit = limit
	var out []models.LocationPing
	for i := len(m.pings) - 1; i >= 0 && len(out) < limit; i-- {
		if m.pings[i].RepID == repID && m.pings[i].CompanyID == companyID {
			out = append(out, m.pings[i])
		}
	}
	return out, nil
}

func (m *mockLocationRepository) ForJourney(ctx context.Context, companyID uuid.UUID, planID uint) ([]models.LocationPing, error) {
	var out []models.LocationPing
	for _, p := range m.pings {
		if p.CompanyID == companyID && p.JourneyPlanID != nil && *p.JourneyPlanID == planID {
			out = append(out, p)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	published []models.LocationPing
}

func (r *recordingPublisher) PublishLocation(companyID uuid.UUID, ping models.LocationPing) {
	r.published = append(r.published, ping)
}

type stubTokenIssuer struct{}

func (stubTokenIssuer) GenerateToken(userID uint, role string, companyID uuid.UUID) (string, error) {
	return fmt.Sprintf("token-%d-%s", userID, role), nil
}

// ============================================================================
// Fixtures
// ============================================================================

type fixture struct {
	company   uuid.UUID
	manager   Actor
	rep       Actor
	users     *mockUserRepository
	customers *mockCustomerRepository
	routes    *mockRouteRepository
	logs      *mockOptimizationRepository
	journeys  *mockJourneyRepository
	locations *mockLocationRepository
	clock     *fakeClock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFixture() *fixture {
	company := uuid.New()
	f := &fixture{
		company:   company,
		users:     newMockUserRepository(),
		customers: newMockCustomerRepository(),
		routes:    newMockRouteRepository(),
		journeys:  newMockJourneyRepository(),
		locations: &mockLocationRepository{},
		clock:     &fakeClock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)},
	}
	f.logs = newMockOptimizationRepository(f.routes)

	mgr := &models.User{CompanyID: company, Name: "Manager", Email: "mgr@example.com", Role: models.RoleManager}
	rep := &models.User{CompanyID: company, Name: "Rep", Email: "rep@example.com", Role: models.RoleRep}
	_ = f.users.Create(context.Background(), mgr)
	_ = f.users.Create(context.Background(), rep)
	f.manager = Actor{UserID: mgr.ID, Role: models.RoleManager, CompanyID: company}
	f.rep = Actor{UserID: rep.ID, Role: models.RoleRep, CompanyID: company}
	return f
}

func ptr[T any](v T) *T { return &v }

// seedRoute creates a route for the fixture rep with one stop per coordinate
// pair, in the given order.
func (f *fixture) seedRoute(coords ...[2]float64) *models.Route {
	ctx := context.Background()
	route := &models.Route{CompanyID: f.company, Name: "North", AssignedRepID: f.rep.UserID, IsActive: true}
	_ = f.routes.Create(ctx, route)
	for i, c := range coords {
		cust := &models.Customer{CompanyID: f.company, Name: fmt.Sprintf("Shop %d", i+1), IsActive: true}
		_ = f.customers.Create(ctx, cust)
		stop := &models.RouteCustomer{
			CompanyID:     f.company,
			RouteID:       route.ID,
			CustomerID:    cust.ID,
			VisitSequence: i + 1,
			IsActive:      true,
			Customer:      cust,
		}
		if c != [2]float64{} {
			stop.Latitude, stop.Longitude = ptr(c[0]), ptr(c[1])
		}
		_ = f.routes.AddStop(ctx, stop)
	}
	return route
}

func (f *fixture) journeyService() *JourneyService {
	s := NewJourneyService(f.routes, f.journeys, f.locations, f.users)
	s.now = f.clock.Now
	return s
}

func (f *fixture) optimizationService() *OptimizationService {
	s := NewOptimizationService(f.routes, f.logs)
	s.now = f.clock.Now
	return s
}

func (f *fixture) locationService(pub Publisher) *LocationService {
	s := NewLocationService(f.locations, f.journeys, pub)
	s.now = f.clock.Now
	return s
}
