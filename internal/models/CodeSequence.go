package models

import "github.com/google/uuid"

// CodeSequence backs the human readable codes (RT0001, JP-20260101-0001, ...).
// Scope is the code family, optionally suffixed by a period such as a date.
type CodeSequence struct {
	CompanyID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Scope     string    `gorm:"primaryKey;type:varchar(64)"`
	Value     int64     `gorm:"not null;default:0"`
}
