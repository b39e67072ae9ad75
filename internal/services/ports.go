package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sabohub/internal/models"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID    uint
	Role      string
	CompanyID uuid.UUID
}

// IsManager reports whether the actor may manage routes and plans.
func (a Actor) IsManager() bool {
	return a.Role == models.RoleManager || a.Role == models.RoleAdmin
}

type CompanyRepository interface {
	Create(ctx context.Context, company *models.Company) error
	Get(ctx context.Context, companyID uuid.UUID) (*models.Company, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.User, error)
	UpdateRole(ctx context.Context, companyID uuid.UUID, id uint, role string) error
}

// CustomerFilter narrows customer listings.
type CustomerFilter struct {
	Search     string
	ActiveOnly bool
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.Customer, error)
	List(ctx context.Context, companyID uuid.UUID, filter CustomerFilter) ([]models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
}

// RouteFilter narrows route listings.
type RouteFilter struct {
	RepID      uint
	ActiveOnly bool
}

// RouteRepository persists routes and their stops. Every stop mutation
// refreshes the route cache (customer counts and geometry) in the same
// transaction.
type RouteRepository interface {
	Create(ctx context.Context, route *models.Route) error
	Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.Route, error)
	List(ctx context.Context, companyID uuid.UUID, filter RouteFilter) ([]models.Route, error)
	Update(ctx context.Context, route *models.Route) error
	SetActive(ctx context.Context, companyID uuid.UUID, id uint, active bool) error

	ListStops(ctx context.Context, companyID uuid.UUID, routeID uint, activeOnly bool) ([]models.RouteCustomer, error)
	AddStop(ctx context.Context, stop *models.RouteCustomer) error
	RemoveStop(ctx context.Context, companyID uuid.UUID, routeID, stopID uint) error
}

type OptimizationRepository interface {
	Create(ctx context.Context, log *models.RouteOptimizationLog) error
	Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.RouteOptimizationLog, error)
	ListByRoute(ctx context.Context, companyID uuid.UUID, routeID uint) ([]models.RouteOptimizationLog, error)
	// Apply rewrites stop sequences from order (1-based) and marks the log
	// applied in one transaction. A log that is already applied yields
	// apperr.ErrConflict and nothing is written.
	Apply(ctx context.Context, log *models.RouteOptimizationLog, order []uint, appliedBy uint, at time.Time) error
}

// JourneyFilter narrows journey plan listings. Zero values are ignored.
type JourneyFilter struct {
	RouteID  uint
	RepID    uint
	Status   string
	DateFrom time.Time
	DateTo   time.Time
}

// JourneyTransition is a guarded status change: it only applies while the
// plan is in one of From.
type JourneyTransition struct {
	From             []string
	To               string
	ActualStartTime  *time.Time
	ActualEndTime    *time.Time
	ActualDistanceKm *decimal.Decimal
	AppendNote       string
}

// CheckoutUpdate carries the departure side of a check-in.
type CheckoutUpdate struct {
	CheckoutTime         time.Time
	CheckoutLatitude     *float64
	CheckoutLongitude    *float64
	CheckoutPhotoURL     string
	VisitDurationMinutes *int
	CompletedActivities  []string
	Issues               string
	Notes                string
}

type JourneyRepository interface {
	Create(ctx context.Context, plan *models.JourneyPlan) error
	Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.JourneyPlan, error)
	List(ctx context.Context, companyID uuid.UUID, filter JourneyFilter) ([]models.JourneyPlan, error)
	Transition(ctx context.Context, companyID uuid.UUID, id uint, t JourneyTransition) (*models.JourneyPlan, error)

	CreateCheckin(ctx context.Context, checkin *models.JourneyCheckin) error
	GetCheckin(ctx context.Context, companyID uuid.UUID, id uint) (*models.JourneyCheckin, error)
	ListCheckins(ctx context.Context, companyID uuid.UUID, planID uint) ([]models.JourneyCheckin, error)
	// Checkout stamps the departure of a checked-in visit and recounts the
	// plan's completed visits in the same transaction.
	Checkout(ctx context.Context, companyID uuid.UUID, id uint, u CheckoutUpdate) (*models.JourneyCheckin, error)
}

type LocationRepository interface {
	// Insert stores a ping. When the ping carries a client id already stored
	// for the rep, the stored row is returned with created=false.
	Insert(ctx context.Context, ping *models.LocationPing) (stored *models.LocationPing, created bool, err error)
	Latest(ctx context.Context, companyID uuid.UUID, repID uint) (*models.LocationPing, error)
	Recent(ctx context.Context, companyID uuid.UUID, repID uint, limit int) ([]models.LocationPing, error)
	ForJourney(ctx context.Context, companyID uuid.UUID, planID uint) ([]models.LocationPing, error)
}
