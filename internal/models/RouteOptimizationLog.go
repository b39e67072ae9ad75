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
	StrategyLatitudeSweep       = "latitude_sweep"
	StrategyNearestNeighbor2Opt = "nearest_neighbor_2opt"
)

// RouteOptimizationLog records one optimizer run. Sequences are JSON arrays of
// customer ids in visit order.
type RouteOptimizationLog struct {
	gorm.Model

	CompanyID uuid.UUID `gorm:"type:uuid;index;not null" json:"company_id"`
	RouteID   uint      `gorm:"index;not null" json:"route_id"`
	Strategy  string    `gorm:"type:varchar(32);not null" json:"strategy"`

	OriginalSequence  datatypes.JSON `gorm:"type:jsonb" json:"original_sequence"`
	OptimizedSequence datatypes.JSON `gorm:"type:jsonb" json:"optimized_sequence"`

	OriginalDistanceKm  decimal.Decimal `gorm:"type:numeric(10,2)" json:"original_distance_km"`
	OptimizedDistanceKm decimal.Decimal `gorm:"type:numeric(10,2)" json:"optimized_distance_km"`
	DistanceSavedKm     decimal.Decimal `gorm:"type:numeric(10,2)" json:"distance_saved_km"`
	ImprovementPercent  decimal.Decimal `gorm:"type:numeric(6,2)" json:"improvement_percent"`

	IsApplied bool       `gorm:"default:false" json:"is_applied"`
	AppliedBy *uint      `json:"applied_by"`
	AppliedAt *time.Time `json:"applied_at"`
	CreatedBy uint       `json:"created_by"`
}

func (RouteOptimizationLog) TableName() string {
	return "route_optimization_logs"
}

// OptimizedCustomerIDs decodes the proposed visit order.
func (l RouteOptimizationLog) OptimizedCustomerIDs() ([]uint, error) {
	return decodeSequence(l.OptimizedSequence)
}

// OriginalCustomerIDs decodes the visit order at the time of the run.
func (l RouteOptimizationLog) OriginalCustomerIDs() ([]uint, error) {
	return decodeSequence(l.OriginalSequence)
}

func decodeSequence(raw datatypes.JSON) ([]uint, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
