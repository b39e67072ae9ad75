package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is the tenant every other record is scoped to.
type Company struct {
	gorm.Model
	CompanyID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"company_id"`
	Name      string    `gorm:"not null" json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.CompanyID == uuid.Nil {
		c.CompanyID = uuid.New()
	}
	return nil
}
