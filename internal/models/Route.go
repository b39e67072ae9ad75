package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Route is a named sales territory visited on a recurring basis by one rep.
// TotalCustomers and ActiveCustomers are a cache over route_customers and are
// only written by the route cache refresh.
type Route struct {
	gorm.Model

	CompanyID   uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_route_company_code" json:"company_id"`
	Code        string    `gorm:"not null;uniqueIndex:idx_route_company_code" json:"code"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`

	AssignedRepID uint  `gorm:"index" json:"assigned_rep_id"`
	BackupRepID   *uint `json:"backup_rep_id"`

	Region         string         `json:"region"`
	Territory      string         `json:"territory"`
	Channel        string         `json:"channel"`
	VisitFrequency string         `gorm:"default:weekly" json:"visit_frequency"`
	VisitDays      pq.StringArray `gorm:"type:text[]" json:"visit_days"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`

	TotalCustomers  int `gorm:"default:0" json:"total_customers"`
	ActiveCustomers int `gorm:"default:0" json:"active_customers"`

	// Stops in visit order as a LINESTRING (SRID 4326), WKB encoded.
	Geometry []byte `gorm:"type:bytea" json:"-"`

	Customers []RouteCustomer `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"customers,omitempty"`
}

func (Route) TableName() string {
	return "sales_routes"
}
