package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	CheckinStatusCheckedIn  = "checked_in"
	CheckinStatusCheckedOut = "checked_out"
)

// JourneyCheckin is one visit attempt at a stop of a journey plan.
type JourneyCheckin struct {
	gorm.Model

	CompanyID     uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_checkin_company_number" json:"company_id"`
	CheckinNumber string    `gorm:"not null;uniqueIndex:idx_checkin_company_number" json:"checkin_number"`
	JourneyPlanID uint      `gorm:"index;not null" json:"journey_plan_id"`
	CustomerID    uint      `gorm:"index;not null" json:"customer_id"`
	RepID         uint      `gorm:"index;not null" json:"rep_id"`

	CheckinTime      *time.Time `json:"checkin_time"`
	CheckinLatitude  *float64   `json:"checkin_latitude"`
	CheckinLongitude *float64   `json:"checkin_longitude"`
	CheckinAccuracy  *float64   `json:"checkin_accuracy"`
	CheckinPhotoURL  string     `json:"checkin_photo_url"`
	VisitType        string     `json:"visit_type"`
	VisitPurpose     string     `json:"visit_purpose"`

	CheckoutTime         *time.Time     `json:"checkout_time"`
	CheckoutLatitude     *float64       `json:"checkout_latitude"`
	CheckoutLongitude    *float64       `json:"checkout_longitude"`
	CheckoutPhotoURL     string         `json:"checkout_photo_url"`
	VisitDurationMinutes *int           `json:"visit_duration_minutes"`
	CompletedActivities  pq.StringArray `gorm:"type:text[]" json:"completed_activities"`
	Issues               string         `json:"issues"`
	Notes                string         `json:"notes"`

	Status string `gorm:"type:varchar(16);not null;default:'checked_in';index" json:"status"`
}
