package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sabohub/internal/apperr"
	"sabohub/internal/models"
	"sabohub/internal/optimizer"
)

type OptimizationRepository struct {
	db *gorm.DB
}

func NewOptimizationRepository(db *gorm.DB) *OptimizationRepository {
	return &OptimizationRepository{db: db}
}

func (r *OptimizationRepository) Create(ctx context.Context, l *models.RouteOptimizationLog) error {
	return translate(r.db.WithContext(ctx).Create(l).Error, "optimization log", l.RouteID)
}

func (r *OptimizationRepository) Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.RouteOptimizationLog, error) {
	var l models.RouteOptimizationLog
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&l, id).Error; err != nil {
		return nil, translate(err, "optimization log", id)
	}
	return &l, nil
}

func (r *OptimizationRepository) ListByRoute(ctx context.Context, companyID uuid.UUID, routeID uint) ([]models.RouteOptimizationLog, error) {
	var logs []models.RouteOptimizationLog
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND route_id = ?", companyID, routeID).
		Order("created_at DESC, id DESC").
		Find(&logs).Error
	if err != nil {
		return nil, translate(err, "optimization logs", routeID)
	}
	return logs, nil
}

// Apply claims the log and renumbers the route's stops: customers in order
// take positions 1..len(order), every other stop (unlocated, inactive or added
// after the run) follows in its previous relative order. Customers that left
// the route since the run are skipped. The route cache is refreshed last.
func (r *OptimizationRepository) Apply(ctx context.Context, l *models.RouteOptimizationLog, order []uint, appliedBy uint, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&models.RouteOptimizationLog{}).
			Where("id = ? AND company_id = ? AND is_applied = ?", l.ID, l.CompanyID, false).
			Updates(map[string]interface{}{
				"is_applied": true,
				"applied_by": appliedBy,
				"applied_at": at,
			})
		if claim.Error != nil {
			return translate(claim.Error, "optimization log", l.ID)
		}
		if claim.RowsAffected == 0 {
			return fmt.Errorf("optimization %d already applied: %w", l.ID, apperr.ErrConflict)
		}

		if err := lockRoute(tx, l.CompanyID, l.RouteID); err != nil {
			return err
		}
		var stops []models.RouteCustomer
		err := tx.Select("id", "customer_id", "visit_sequence").
			Where("route_id = ?", l.RouteID).
			Order("visit_sequence, id").
			Find(&stops).Error
		if err != nil {
			return translate(err, "route customers", l.RouteID)
		}

		current := make([]uint, len(stops))
		for i, st := range stops {
			current[i] = st.CustomerID
		}
		sequences := optimizer.Resequence(order, current)
		for _, st := range stops {
			seq := sequences[st.CustomerID]
			if seq == st.VisitSequence {
				continue
			}
			err := tx.Model(&models.RouteCustomer{}).
				Where("id = ?", st.ID).
				UpdateColumn("visit_sequence", seq).Error
			if err != nil {
				return translate(err, "route customer", st.CustomerID)
			}
		}
		return refreshRouteCache(tx, l.RouteID)
	})
}
