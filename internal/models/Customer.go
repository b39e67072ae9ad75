package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is the CRM record a route stop points at. Coordinates are optional;
// customers without them are skipped by the optimizer.
type Customer struct {
	gorm.Model
	CompanyID uuid.UUID `gorm:"type:uuid;index;not null" json:"company_id"`
	Code      string    `gorm:"index" json:"code"`
	Name      string    `gorm:"not null" json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
}
