package services

import (
	"context"
	"errors"
	"testing"

	"sabohub/internal/apperr"
)

func TestCustomerService(t *testing.T) {
	f := newFixture()
	svc := NewCustomerService(f.customers)
	ctx := context.Background()
	name := " Tap Hoa Minh "

	if _, err := svc.Create(ctx, f.rep, CustomerInput{}); !apperr.IsValidation(err) {
		t.Errorf("nameless Create() error = %v, want validation", err)
	}
	if _, err := svc.Create(ctx, f.rep, CustomerInput{Name: &name, Latitude: ptr(10.0)}); !apperr.IsValidation(err) {
		t.Errorf("half coordinate Create() error = %v, want validation", err)
	}

	c, err := svc.Create(ctx, f.rep, CustomerInput{Name: &name, Latitude: ptr(10.8), Longitude: ptr(106.7)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.Name != "Tap Hoa Minh" || !c.IsActive || c.CompanyID != f.company {
		t.Errorf("customer = %+v", c)
	}

	inactive := false
	updated, err := svc.Update(ctx, f.manager, c.ID, CustomerInput{IsActive: &inactive})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.IsActive || updated.Name != "Tap Hoa Minh" {
		t.Errorf("updated = %+v, want inactive with name kept", updated)
	}

	other := Actor{UserID: 1, Role: "manager", CompanyID: newFixture().company}
	if _, err := svc.Get(ctx, other, c.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("cross-company Get() error = %v, want ErrNotFound", err)
	}
}
