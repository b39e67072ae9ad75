package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sabohub/internal/apperr"
	"sabohub/internal/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error, "user", user.Email)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "user", email)
	}
	return &user, nil
}

func (r *UserRepository) Get(ctx context.Context, companyID uuid.UUID, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&user, id).Error; err != nil {
		return nil, translate(err, "user", id)
	}
	return &user, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, companyID uuid.UUID, id uint, role string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Update("role", role)
	if res.Error != nil {
		return translate(res.Error, "user", id)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user", id)
	}
	return nil
}
