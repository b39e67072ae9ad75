package services

import (
	"context"
	"errors"
	"testing"

	"sabohub/internal/apperr"
	"sabohub/internal/models"
)

func newAuthService() (*AuthService, *mockUserRepository, *mockCompanyRepository) {
	users := newMockUserRepository()
	companies := newMockCompanyRepository()
	return NewAuthService(users, companies, stubTokenIssuer{}), users, companies
}

func TestSignup_AdminFoundsCompany(t *testing.T) {
	svc, _, companies := newAuthService()

	user, token, err := svc.Signup(context.Background(), SignupInput{
		Name: "Lan", Email: " Lan@Example.com ", Password: "secret-pass", Role: "admin", CompanyName: "Sabo Foods",
	})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if user.Email != "lan@example.com" {
		t.Errorf("Email = %q, want normalized", user.Email)
	}
	if user.Password == "secret-pass" {
		t.Error("password stored in clear text")
	}
	if _, ok := companies.companies[user.CompanyID]; !ok {
		t.Errorf("company %s was not created", user.CompanyID)
	}
}

func TestSignup_RepNeedsCompany(t *testing.T) {
	svc, _, _ := newAuthService()
	_, _, err := svc.Signup(context.Background(), SignupInput{Name: "Rep", Email: "rep@example.com", Password: "secret-pass"})
	if !apperr.IsValidation(err) {
		t.Fatalf("Signup() error = %v, want validation", err)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()
	admin, _, err := svc.Signup(ctx, SignupInput{Name: "A", Email: "a@example.com", Password: "secret-pass", Role: "admin", CompanyName: "Co"})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	_, _, err = svc.Signup(ctx, SignupInput{Name: "B", Email: "A@example.com", Password: "secret-pass", CompanyID: &admin.CompanyID})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate Signup() error = %v, want ErrConflict", err)
	}
}

func TestSignup_InvalidRole(t *testing.T) {
	svc, _, _ := newAuthService()
	_, _, err := svc.Signup(context.Background(), SignupInput{Name: "X", Email: "x@example.com", Password: "secret-pass", Role: "driver"})
	if !apperr.IsValidation(err) {
		t.Fatalf("Signup() error = %v, want validation", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()
	_, _, err := svc.Signup(ctx, SignupInput{Name: "A", Email: "a@example.com", Password: "secret-pass", Role: models.RoleAdmin, CompanyName: "Co"})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	user, token, err := svc.Login(ctx, "A@example.com", "secret-pass")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.Role != models.RoleAdmin || token == "" {
		t.Errorf("Login() = %+v, %q", user, token)
	}

	if _, _, err := svc.Login(ctx, "a@example.com", "wrong-pass"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("wrong password error = %v, want ErrUnauthorized", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "secret-pass"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("unknown email error = %v, want ErrUnauthorized", err)
	}
}

func TestSignup_JoiningCompanyIsRepOnly(t *testing.T) {
	svc, users, _ := newAuthService()
	ctx := context.Background()
	admin, _, err := svc.Signup(ctx, SignupInput{Name: "A", Email: "a@example.com", Password: "secret-pass", Role: "admin", CompanyName: "Tenant A"})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	for _, role := range []string{models.RoleAdmin, models.RoleManager, " Manager "} {
		_, _, err := svc.Signup(ctx, SignupInput{
			Name: "Intruder", Email: "intruder@example.com", Password: "secret-pass", Role: role, CompanyID: &admin.CompanyID,
		})
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("Signup(role=%q) into existing company error = %v, want ErrForbidden", role, err)
		}
	}
	if len(users.users) != 1 {
		t.Errorf("stored %d users, want only the founding admin", len(users.users))
	}

	rep, _, err := svc.Signup(ctx, SignupInput{Name: "R", Email: "r@example.com", Password: "secret-pass", CompanyID: &admin.CompanyID})
	if err != nil {
		t.Fatalf("rep Signup() error = %v", err)
	}
	if rep.Role != models.RoleRep || rep.CompanyID != admin.CompanyID {
		t.Errorf("rep = %+v, want rep of %s", rep, admin.CompanyID)
	}
}

func TestChangeRole(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()
	admin, _, err := svc.Signup(ctx, SignupInput{Name: "A", Email: "a@example.com", Password: "secret-pass", Role: "admin", CompanyName: "Co"})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	rep, _, err := svc.Signup(ctx, SignupInput{Name: "R", Email: "r@example.com", Password: "secret-pass", CompanyID: &admin.CompanyID})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	other, _, err := svc.Signup(ctx, SignupInput{Name: "O", Email: "o@example.com", Password: "secret-pass", Role: "admin", CompanyName: "Other"})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	adminActor := Actor{UserID: admin.ID, Role: models.RoleAdmin, CompanyID: admin.CompanyID}

	tests := []struct {
		name    string
		actor   Actor
		userID  uint
		role    string
		wantErr error
	}{
		{"rep cannot promote", Actor{UserID: rep.ID, Role: models.RoleRep, CompanyID: rep.CompanyID}, rep.ID, "admin", apperr.ErrForbidden},
		{"manager cannot promote", Actor{UserID: 99, Role: models.RoleManager, CompanyID: admin.CompanyID}, rep.ID, "manager", apperr.ErrForbidden},
		{"own role", adminActor, admin.ID, "rep", apperr.ErrForbidden},
		{"other company", adminActor, other.ID, "rep", apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ChangeRole(ctx, tt.actor, tt.userID, tt.role); !errors.Is(err, tt.wantErr) {
				t.Errorf("ChangeRole() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := svc.ChangeRole(ctx, adminActor, rep.ID, "driver"); !apperr.IsValidation(err) {
		t.Errorf("invalid role error = %v, want validation", err)
	}

	updated, err := svc.ChangeRole(ctx, adminActor, rep.ID, "Manager")
	if err != nil {
		t.Fatalf("ChangeRole() error = %v", err)
	}
	if updated.Role != models.RoleManager {
		t.Errorf("Role = %q, want manager", updated.Role)
	}
	if other.Role != models.RoleAdmin {
		t.Errorf("other company admin role changed to %q", other.Role)
	}
}
