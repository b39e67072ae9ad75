package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// RouteCustomer is one stop on a route. VisitSequence orders stops within a
// single route only and is rewritten wholesale when an optimization is applied.
type RouteCustomer struct {
	gorm.Model

	CompanyID  uuid.UUID `gorm:"type:uuid;index;not null" json:"company_id"`
	RouteID    uint      `gorm:"not null;uniqueIndex:idx_route_customer" json:"route_id"`
	CustomerID uint      `gorm:"not null;uniqueIndex:idx_route_customer" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	VisitSequence           int            `gorm:"not null" json:"visit_sequence"`
	PreferredVisitTime      string         `json:"preferred_visit_time"`
	ExpectedDurationMinutes int            `gorm:"default:15" json:"expected_duration_minutes"`
	VisitFrequency          string         `gorm:"default:weekly" json:"visit_frequency"`
	VisitDays               pq.StringArray `gorm:"type:text[]" json:"visit_days"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`

	MustTakeOrder      bool `json:"must_take_order"`
	MustTakePhoto      bool `json:"must_take_photo"`
	MustCheckInventory bool `json:"must_check_inventory"`
	IsActive           bool `gorm:"default:true" json:"is_active"`
}

// HasCoordinates reports whether the stop can take part in distance calculations.
func (rc RouteCustomer) HasCoordinates() bool {
	return rc.Latitude != nil && rc.Longitude != nil
}
