package services

import (
	"context"
	"fmt"
	"strings"

	"sabohub/internal/apperr"
	"sabohub/internal/geo"
	"sabohub/internal/models"
)

// CustomerInput is the writable part of a customer. Nil fields are left
// untouched on update.
type CustomerInput struct {
	Code      *string  `json:"code"`
	Name      *string  `json:"name"`
	Phone     *string  `json:"phone"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	IsActive  *bool    `json:"is_active"`
}

type CustomerService struct {
	customers CustomerRepository
}

func NewCustomerService(customers CustomerRepository) *CustomerService {
	return &CustomerService{customers: customers}
}

func (s *CustomerService) Create(ctx context.Context, actor Actor, in CustomerInput) (*models.Customer, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	c := &models.Customer{CompanyID: actor.CompanyID, IsActive: true}
	if err := applyCustomerInput(c, in); err != nil {
		return nil, err
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return c, nil
}

func (s *CustomerService) Get(ctx context.Context, actor Actor, id uint) (*models.Customer, error) {
	return s.customers.Get(ctx, actor.CompanyID, id)
}

func (s *CustomerService) List(ctx context.Context, actor Actor, filter CustomerFilter) ([]models.Customer, error) {
	return s.customers.List(ctx, actor.CompanyID, filter)
}

func (s *CustomerService) Update(ctx context.Context, actor Actor, id uint, in CustomerInput) (*models.Customer, error) {
	c, err := s.customers.Get(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("name cannot be empty")
	}
	if err := applyCustomerInput(c, in); err != nil {
		return nil, err
	}
	if err := s.customers.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return c, nil
}

func applyCustomerInput(c *models.Customer, in CustomerInput) error {
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return apperr.Validation("latitude and longitude must be given together")
	}
	if in.Latitude != nil {
		if !(geo.Point{Lat: *in.Latitude, Lng: *in.Longitude}).Valid() {
			return apperr.Validation("coordinates out of range")
		}
		lat, lng := *in.Latitude, *in.Longitude
		c.Latitude, c.Longitude = &lat, &lng
	}
	if in.Code != nil {
		c.Code = strings.TrimSpace(*in.Code)
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	return nil
}
