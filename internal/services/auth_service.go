package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"sabohub/internal/apperr"
	"sabohub/internal/models"
)

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(userID uint, role string, companyID uuid.UUID) (string, error)
}

// SignupInput registers a user. An admin without CompanyID founds a new
// company named CompanyName. Joining an existing company is open to reps
// only; an admin of that company promotes them later through ChangeRole.
type SignupInput struct {
	Name        string     `json:"name" binding:"required"`
	Email       string     `json:"email" binding:"required,email"`
	Password    string     `json:"password" binding:"required,min=8"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	CompanyID   *uuid.UUID `json:"company_id"`
	CompanyName string     `json:"company_name"`
}

type AuthService struct {
	users     UserRepository
	companies CompanyRepository
	tokens    TokenIssuer
}

func NewAuthService(users UserRepository, companies CompanyRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, companies: companies, tokens: tokens}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, string, error) {
	role, err := validateAndNormalizeRole(in.Role)
	if err != nil {
		return nil, "", err
	}

	var companyID uuid.UUID
	switch {
	case in.CompanyID != nil:
		if role != models.RoleRep {
			return nil, "", fmt.Errorf("only reps can join an existing company, an admin must grant %s: %w", role, apperr.ErrForbidden)
		}
		company, err := s.companies.Get(ctx, *in.CompanyID)
		if err != nil {
			return nil, "", apperr.Validation("company with the provided company_id does not exist")
		}
		companyID = company.CompanyID
	case role == models.RoleAdmin:
		if strings.TrimSpace(in.CompanyName) == "" {
			return nil, "", apperr.Validation("company_name is required to register a new company")
		}
		company := &models.Company{Name: strings.TrimSpace(in.CompanyName), Phone: in.Phone}
		if err := s.companies.Create(ctx, company); err != nil {
			return nil, "", fmt.Errorf("could not create company: %w", err)
		}
		companyID = company.CompanyID
	default:
		return nil, "", apperr.Validation("company_id is required for role %s", role)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("could not hash password: %w", err)
	}
	user := &models.User{
		CompanyID: companyID,
		Name:      in.Name,
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Password:  hash,
		Phone:     in.Phone,
		Role:      role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, "", fmt.Errorf("email already in use: %w", apperr.ErrConflict)
		}
		return nil, "", fmt.Errorf("could not create user: %w", err)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role, user.CompanyID)
	if err != nil {
		return nil, "", fmt.Errorf("could not generate token: %w", err)
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": role, "company_id": companyID}).Info("User signed up")
	return user, token, nil
}

// ChangeRole lets a company admin set the role of another user of the same
// company.
func (s *AuthService) ChangeRole(ctx context.Context, actor Actor, userID uint, roleInput string) (*models.User, error) {
	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("only admins can change roles: %w", apperr.ErrForbidden)
	}
	if strings.TrimSpace(roleInput) == "" {
		return nil, apperr.Validation("role is required")
	}
	role, err := validateAndNormalizeRole(roleInput)
	if err != nil {
		return nil, err
	}
	if userID == actor.UserID {
		return nil, fmt.Errorf("admins cannot change their own role: %w", apperr.ErrForbidden)
	}

	user, err := s.users.Get(ctx, actor.CompanyID, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	if err := s.users.UpdateRole(ctx, actor.CompanyID, userID, role); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": userID, "from": user.Role, "to": role, "by": actor.UserID}).Info("User role changed")
	user.Role = role
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if isNotFound(err) {
			return nil, "", apperr.ErrUnauthorized
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", apperr.ErrUnauthorized
	}
	token, err := s.tokens.GenerateToken(user.ID, user.Role, user.CompanyID)
	if err != nil {
		return nil, "", fmt.Errorf("could not generate token: %w", err)
	}
	return user, token, nil
}

func validateAndNormalizeRole(roleInput string) (string, error) {
	role := strings.ToLower(strings.TrimSpace(roleInput))
	if role == "" {
		role = models.RoleRep
	}
	switch role {
	case models.RoleAdmin, models.RoleManager, models.RoleRep:
		return role, nil
	default:
		return "", apperr.Validation("invalid role")
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
