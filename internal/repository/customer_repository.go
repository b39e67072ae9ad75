package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sabohub/internal/models"
	"sabohub/internal/services"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	return translate(r.db.WithContext(ctx).Create(c).Error, "customer", c.Name)
}

func (r *CustomerRepository) Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&c, id).Error; err != nil {
		return nil, translate(err, "customer", id)
	}
	return &c, nil
}

func (r *CustomerRepository) List(ctx context.Context, companyID uuid.UUID, filter services.CustomerFilter) ([]models.Customer, error) {
	q := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}
	var out []models.Customer
	if err := q.Order("name").Find(&out).Error; err != nil {
		return nil, translate(err, "customers", companyID)
	}
	return out, nil
}

// Update saves every column, so is_active=false is written as well.
func (r *CustomerRepository) Update(ctx context.Context, c *models.Customer) error {
	return translate(r.db.WithContext(ctx).Save(c).Error, "customer", c.ID)
}
