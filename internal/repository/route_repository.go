package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sabohub/internal/apperr"
	"sabohub/internal/geo"
	"sabohub/internal/models"
	"sabohub/internal/services"
)

// routeColumns are the columns a route update may write. The customer
// counters and geometry belong to refreshRouteCache.
var routeColumns = []string{
	"name", "description", "assigned_rep_id", "backup_rep_id", "region",
	"territory", "channel", "visit_frequency", "visit_days", "is_active",
}

type RouteRepository struct {
	db *gorm.DB
}

func NewRouteRepository(db *gorm.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// Create allocates the company's next RTnnnn code and inserts the route.
func (r *RouteRepository) Create(ctx context.Context, route *models.Route) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := nextSequence(tx, route.CompanyID, "route")
		if err != nil {
			return err
		}
		route.Code = fmt.Sprintf("RT%04d", n)
		return translate(tx.Create(route).Error, "route", route.Code)
	})
}

func (r *RouteRepository) Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.Route, error) {
	var route models.Route
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&route, id).Error; err != nil {
		return nil, translate(err, "route", id)
	}
	return &route, nil
}

func (r *RouteRepository) List(ctx context.Context, companyID uuid.UUID, filter services.RouteFilter) ([]models.Route, error) {
	q := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if filter.RepID != 0 {
		q = q.Where("assigned_rep_id = ? OR backup_rep_id = ?", filter.RepID, filter.RepID)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	var routes []models.Route
	if err := q.Order("code").Find(&routes).Error; err != nil {
		return nil, translate(err, "routes", companyID)
	}
	return routes, nil
}

func (r *RouteRepository) Update(ctx context.Context, route *models.Route) error {
	res := r.db.WithContext(ctx).Model(route).
		Where("company_id = ?", route.CompanyID).
		Select(routeColumns).
		Updates(route)
	if res.Error != nil {
		return translate(res.Error, "route", route.ID)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("route", route.ID)
	}
	return nil
}

func (r *RouteRepository) SetActive(ctx context.Context, companyID uuid.UUID, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.Route{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Update("is_active", active)
	if res.Error != nil {
		return translate(res.Error, "route", id)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("route", id)
	}
	return nil
}

// ListStops returns the route's stops in visit order with their customers.
func (r *RouteRepository) ListStops(ctx context.Context, companyID uuid.UUID, routeID uint, activeOnly bool) ([]models.RouteCustomer, error) {
	q := r.db.WithContext(ctx).Preload("Customer").
		Where("company_id = ? AND route_id = ?", companyID, routeID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var stops []models.RouteCustomer
	if err := q.Order("visit_sequence, id").Find(&stops).Error; err != nil {
		return nil, translate(err, "route customers", routeID)
	}
	return stops, nil
}

// AddStop inserts a stop, appending it after the current last stop when no
// sequence is given.
func (r *RouteRepository) AddStop(ctx context.Context, stop *models.RouteCustomer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRoute(tx, stop.CompanyID, stop.RouteID); err != nil {
			return err
		}
		if stop.VisitSequence == 0 {
			var last int
			err := tx.Model(&models.RouteCustomer{}).
				Where("route_id = ?", stop.RouteID).
				Select("COALESCE(MAX(visit_sequence), 0)").
				Scan(&last).Error
			if err != nil {
				return translate(err, "route customers", stop.RouteID)
			}
			stop.VisitSequence = last + 1
		}
		if err := tx.Omit("Customer").Create(stop).Error; err != nil {
			return translate(err, "route customer", stop.CustomerID)
		}
		return refreshRouteCache(tx, stop.RouteID)
	})
}

// RemoveStop hard-deletes the stop so the customer can be added again later.
func (r *RouteRepository) RemoveStop(ctx context.Context, companyID uuid.UUID, routeID, stopID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRoute(tx, companyID, routeID); err != nil {
			return err
		}
		res := tx.Unscoped().
			Where("company_id = ? AND route_id = ?", companyID, routeID).
			Delete(&models.RouteCustomer{}, stopID)
		if res.Error != nil {
			return translate(res.Error, "route customer", stopID)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("route customer", stopID)
		}
		return refreshRouteCache(tx, routeID)
	})
}

func lockRoute(tx *gorm.DB, companyID uuid.UUID, routeID uint) error {
	var route models.Route
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("company_id = ?", companyID).
		First(&route, routeID).Error
	return translate(err, "route", routeID)
}

// refreshRouteCache recomputes the customer counters and the route line from
// route_customers. Every stop mutation calls it inside its own transaction.
func refreshRouteCache(tx *gorm.DB, routeID uint) error {
	var total, active int64
	if err := tx.Model(&models.RouteCustomer{}).Where("route_id = ?", routeID).Count(&total).Error; err != nil {
		return fmt.Errorf("count route customers: %w", err)
	}
	if err := tx.Model(&models.RouteCustomer{}).Where("route_id = ? AND is_active = ?", routeID, true).Count(&active).Error; err != nil {
		return fmt.Errorf("count active route customers: %w", err)
	}

	var located []models.RouteCustomer
	err := tx.Select("latitude", "longitude").
		Where("route_id = ? AND is_active = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", routeID, true).
		Order("visit_sequence, id").
		Find(&located).Error
	if err != nil {
		return fmt.Errorf("load route line: %w", err)
	}
	points := make([]geo.Point, 0, len(located))
	for _, st := range located {
		points = append(points, geo.Point{Lat: *st.Latitude, Lng: *st.Longitude})
	}
	line, err := geo.LineStringWKB(points)
	if err != nil {
		return fmt.Errorf("encode route line: %w", err)
	}

	return tx.Model(&models.Route{}).Where("id = ?", routeID).UpdateColumns(map[string]interface{}{
		"total_customers":  total,
		"active_customers": active,
		"geometry":         line,
	}).Error
}
