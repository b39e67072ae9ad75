package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sabohub/internal/models"
)

// LocationRepository stores the append-only ping stream.
type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Insert stores ping unless the rep already sent the same client_ping_id, in
// which case the stored row comes back with created=false. The unique index
// on (rep_id, client_ping_id) settles races between concurrent retries.
func (r *LocationRepository) Insert(ctx context.Context, ping *models.LocationPing) (*models.LocationPing, bool, error) {
	db := r.db.WithContext(ctx)
	if ping.ClientPingID != nil {
		existing, err := r.byClientID(db, ping.RepID, *ping.ClientPingID)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, translate(err, "location", ping.RepID)
		}
	}

	if err := db.Create(ping).Error; err != nil {
		if ping.ClientPingID != nil && isUniqueViolation(err) {
			existing, lookupErr := r.byClientID(db, ping.RepID, *ping.ClientPingID)
			if lookupErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, translate(err, "location", ping.RepID)
	}
	return ping, true, nil
}

func (r *LocationRepository) byClientID(db *gorm.DB, repID uint, clientID uuid.UUID) (*models.LocationPing, error) {
	var p models.LocationPing
	if err := db.Where("rep_id = ? AND client_ping_id = ?", repID, clientID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *LocationRepository) Latest(ctx context.Context, companyID uuid.UUID, repID uint) (*models.LocationPing, error) {
	var p models.LocationPing
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND rep_id = ?", companyID, repID).
		Order("recorded_at DESC, id DESC").
		First(&p).Error
	if err != nil {
		return nil, translate(err, "location of rep", repID)
	}
	return &p, nil
}

func (r *LocationRepository) Recent(ctx context.Context, companyID uuid.UUID, repID uint, limit int) ([]models.LocationPing, error) {
	var out []models.LocationPing
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND rep_id = ?", companyID, repID).
		Order("recorded_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, translate(err, "locations of rep", repID)
	}
	return out, nil
}

func (r *LocationRepository) ForJourney(ctx context.Context, companyID uuid.UUID, planID uint) ([]models.LocationPing, error) {
	var out []models.LocationPing
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND journey_plan_id = ?", companyID, planID).
		Order("recorded_at, id").
		Find(&out).Error
	if err != nil {
		return nil, translate(err, "journey trail", planID)
	}
	return out, nil
}
