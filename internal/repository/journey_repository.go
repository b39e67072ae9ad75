package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sabohub/internal/apperr"
	"sabohub/internal/models"
	"sabohub/internal/services"
)

type JourneyRepository struct {
	db *gorm.DB
}

func NewJourneyRepository(db *gorm.DB) *JourneyRepository {
	return &JourneyRepository{db: db}
}

// Create numbers the plan JP-YYYYMMDD-nnnn, counting per company and plan date.
func (r *JourneyRepository) Create(ctx context.Context, plan *models.JourneyPlan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		day := plan.PlanDate.Format("20060102")
		n, err := nextSequence(tx, plan.CompanyID, "journey:"+day)
		if err != nil {
			return err
		}
		plan.PlanNumber = fmt.Sprintf("JP-%s-%04d", day, n)
		return translate(tx.Create(plan).Error, "journey plan", plan.PlanNumber)
	})
}

func (r *JourneyRepository) Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.JourneyPlan, error) {
	var plan models.JourneyPlan
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&plan, id).Error; err != nil {
		return nil, translate(err, "journey plan", id)
	}
	return &plan, nil
}

func (r *JourneyRepository) List(ctx context.Context, companyID uuid.UUID, f services.JourneyFilter) ([]models.JourneyPlan, error) {
	q := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if f.RouteID != 0 {
		q = q.Where("route_id = ?", f.RouteID)
	}
	if f.RepID != 0 {
		q = q.Where("rep_id = ?", f.RepID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if !f.DateFrom.IsZero() {
		q = q.Where("plan_date >= ?", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		q = q.Where("plan_date <= ?", f.DateTo)
	}
	var plans []models.JourneyPlan
	if err := q.Order("plan_date DESC, id DESC").Find(&plans).Error; err != nil {
		return nil, translate(err, "journey plans", companyID)
	}
	return plans, nil
}

// Transition locks the plan row and applies t only if the current status is
// one of t.From.
func (r *JourneyRepository) Transition(ctx context.Context, companyID uuid.UUID, id uint, t services.JourneyTransition) (*models.JourneyPlan, error) {
	var plan models.JourneyPlan
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("company_id = ?", companyID).
			First(&plan, id).Error
		if err != nil {
			return translate(err, "journey plan", id)
		}
		if !contains(t.From, plan.Status) {
			return fmt.Errorf("journey plan %d is %s, cannot move to %s: %w", id, plan.Status, t.To, apperr.ErrInvalidTransition)
		}

		updates := map[string]interface{}{"status": t.To}
		if t.ActualStartTime != nil {
			updates["actual_start_time"] = *t.ActualStartTime
		}
		if t.ActualEndTime != nil {
			updates["actual_end_time"] = *t.ActualEndTime
		}
		if t.ActualDistanceKm != nil {
			updates["actual_distance_km"] = *t.ActualDistanceKm
		}
		if t.AppendNote != "" {
			notes := t.AppendNote
			if plan.Notes != "" {
				notes = plan.Notes + "\n" + t.AppendNote
			}
			updates["notes"] = notes
		}
		if err := tx.Model(&plan).Updates(updates).Error; err != nil {
			return translate(err, "journey plan", id)
		}
		return tx.First(&plan, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// CreateCheckin numbers the visit CI-nnnnnn, counting per company.
func (r *JourneyRepository) CreateCheckin(ctx context.Context, c *models.JourneyCheckin) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := nextSequence(tx, c.CompanyID, "checkin")
		if err != nil {
			return err
		}
		c.CheckinNumber = fmt.Sprintf("CI-%06d", n)
		return translate(tx.Create(c).Error, "check-in", c.CheckinNumber)
	})
}

func (r *JourneyRepository) GetCheckin(ctx context.Context, companyID uuid.UUID, id uint) (*models.JourneyCheckin, error) {
	var c models.JourneyCheckin
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&c, id).Error; err != nil {
		return nil, translate(err, "check-in", id)
	}
	return &c, nil
}

func (r *JourneyRepository) ListCheckins(ctx context.Context, companyID uuid.UUID, planID uint) ([]models.JourneyCheckin, error) {
	var out []models.JourneyCheckin
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND journey_plan_id = ?", companyID, planID).
		Order("checkin_time, id").
		Find(&out).Error
	if err != nil {
		return nil, translate(err, "check-ins", planID)
	}
	return out, nil
}

// Checkout closes a checked-in visit and recounts completed_visits of its
// plan from the checked-out rows while holding the plan row lock.
func (r *JourneyRepository) Checkout(ctx context.Context, companyID uuid.UUID, id uint, u services.CheckoutUpdate) (*models.JourneyCheckin, error) {
	var c models.JourneyCheckin
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("company_id = ?", companyID).
			First(&c, id).Error
		if err != nil {
			return translate(err, "check-in", id)
		}
		if c.Status != models.CheckinStatusCheckedIn {
			return fmt.Errorf("check-in %d is %s: %w", id, c.Status, apperr.ErrInvalidTransition)
		}

		err = tx.Model(&c).Updates(map[string]interface{}{
			"checkout_time":          u.CheckoutTime,
			"checkout_latitude":      u.CheckoutLatitude,
			"checkout_longitude":     u.CheckoutLongitude,
			"checkout_photo_url":     u.CheckoutPhotoURL,
			"visit_duration_minutes": u.VisitDurationMinutes,
			"completed_activities":   pq.StringArray(u.CompletedActivities),
			"issues":                 u.Issues,
			"notes":                  mergeNotes(c.Notes, u.Notes),
			"status":                 models.CheckinStatusCheckedOut,
		}).Error
		if err != nil {
			return translate(err, "check-in", id)
		}

		// Concurrent check-outs of one plan recount in turn.
		var plan models.JourneyPlan
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&plan, c.JourneyPlanID).Error
		if err != nil {
			return translate(err, "journey plan", c.JourneyPlanID)
		}

		var done int64
		err = tx.Model(&models.JourneyCheckin{}).
			Where("journey_plan_id = ? AND status = ?", c.JourneyPlanID, models.CheckinStatusCheckedOut).
			Count(&done).Error
		if err != nil {
			return fmt.Errorf("count completed visits: %w", err)
		}
		err = tx.Model(&models.JourneyPlan{}).
			Where("id = ?", c.JourneyPlanID).
			UpdateColumn("completed_visits", done).Error
		if err != nil {
			return translate(err, "journey plan", c.JourneyPlanID)
		}
		return tx.First(&c, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func mergeNotes(existing, added string) string {
	switch {
	case added == "":
		return existing
	case existing == "":
		return added
	default:
		return existing + "\n" + added
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
