package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	JourneyStatusDraft      = "draft"
	JourneyStatusInProgress = "in_progress"
	JourneyStatusCompleted  = "completed"
	JourneyStatusCancelled  = "cancelled"
)

// PlannedStop is one entry of a journey plan's frozen stop list.
type PlannedStop struct {
	RouteCustomerID         uint     `json:"route_customer_id"`
	CustomerID              uint     `json:"customer_id"`
	CustomerName            string   `json:"customer_name"`
	VisitSequence           int      `json:"visit_sequence"`
	PreferredVisitTime      string   `json:"preferred_visit_time,omitempty"`
	ExpectedDurationMinutes int      `json:"expected_duration_minutes"`
	Latitude                *float64 `json:"latitude"`
	Longitude               *float64 `json:"longitude"`
	Address                 string   `json:"address,omitempty"`
	MustTakeOrder           bool     `json:"must_take_order"`
	MustTakePhoto           bool     `json:"must_take_photo"`
	MustCheckInventory      bool     `json:"must_check_inventory"`
}

// JourneyPlan is one dated, rep-assigned run of a route. PlannedCustomers is
// captured once at creation and never re-read from the route afterwards.
type JourneyPlan struct {
	gorm.Model

	CompanyID    uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_plan_company_number" json:"company_id"`
	PlanNumber   string    `gorm:"not null;uniqueIndex:idx_plan_company_number" json:"plan_number"`
	RouteID      uint      `gorm:"index;not null" json:"route_id"`
	PlanDate     time.Time `gorm:"type:date;index;not null" json:"plan_date"`
	RepID        uint      `gorm:"index;not null" json:"rep_id"`
	SupervisorID *uint     `json:"supervisor_id"`
	Status       string    `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`

	PlannedCustomers datatypes.JSON `gorm:"type:jsonb" json:"planned_customers"`
	PlannedVisits    int            `gorm:"default:0" json:"planned_visits"`
	CompletedVisits  int            `gorm:"default:0" json:"completed_visits"`

	PlannedStartTime *time.Time      `json:"planned_start_time"`
	PlannedEndTime   *time.Time      `json:"planned_end_time"`
	ActualStartTime  *time.Time      `json:"actual_start_time"`
	ActualEndTime    *time.Time      `json:"actual_end_time"`
	ActualDistanceKm decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"actual_distance_km"`
	Notes            string          `json:"notes"`
}

// Stops decodes the frozen stop snapshot.
func (p JourneyPlan) Stops() ([]PlannedStop, error) {
	if len(p.PlannedCustomers) == 0 {
		return nil, nil
	}
	var stops []PlannedStop
	if err := json.Unmarshal(p.PlannedCustomers, &stops); err != nil {
		return nil, err
	}
	return stops, nil
}

// IsTerminal reports whether the plan can no longer change state.
func (p JourneyPlan) IsTerminal() bool {
	return p.Status == JourneyStatusCompleted || p.Status == JourneyStatusCancelled
}
