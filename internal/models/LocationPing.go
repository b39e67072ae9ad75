package models

import (
	"time"

	"github.com/google/uuid"
)

// LocationPing is an immutable device position sample. There is no
// updated_at or soft delete: rows are only ever inserted.
type LocationPing struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CompanyID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"company_id"`
	RepID         uint       `gorm:"not null;index:idx_ping_rep_time,priority:1;uniqueIndex:idx_ping_rep_client,priority:1" json:"rep_id"`
	JourneyPlanID *uint      `gorm:"index" json:"journey_plan_id"`
	ClientPingID  *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_ping_rep_client,priority:2" json:"client_ping_id,omitempty"`

	Latitude     float64  `gorm:"not null" json:"latitude"`
	Longitude    float64  `gorm:"not null" json:"longitude"`
	Accuracy     *float64 `json:"accuracy"` // meters
	Altitude     *float64 `json:"altitude"` // meters
	Speed        *float64 `json:"speed"`    // m/s
	Heading      *float64 `json:"heading"`  // degrees
	BatteryLevel *int     `json:"battery_level"`
	NetworkType  string   `json:"network_type"`

	IsMoving         bool    `json:"is_moving"`
	DistanceFromLast float64 `json:"distance_from_last"` // meters from the previous ping of the same rep
	EventType        string  `json:"event_type"`         // "initial", "move", "stopped", "started", "periodic", "stationary"

	RecordedAt time.Time `gorm:"not null;index:idx_ping_rep_time,priority:2" json:"recorded_at"`
}

func (LocationPing) TableName() string {
	return "sales_rep_locations"
}
