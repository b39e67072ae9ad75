package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sabohub/internal/models"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	return translate(r.db.WithContext(ctx).Create(company).Error, "company", company.Name)
}

func (r *CompanyRepository) Get(ctx context.Context, companyID uuid.UUID) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&company).Error
	if err != nil {
		return nil, translate(err, "company", companyID)
	}
	return &company, nil
}
