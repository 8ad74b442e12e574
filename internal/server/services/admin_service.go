package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stockadmin/console/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var roleCatalogue = []models.RoleInfo{
	{Name: models.RoleAdmin, Description: "Full access including users and roles"},
	{Name: models.RoleManager, Description: "Manages products, categories and stock movements"},
	{Name: models.RoleEmployee, Description: "Read access to the inventory"},
}

// adminService implements AdminService
type adminService struct {
	userRepo UserRepository
}

// NewAdminService creates a new admin service
func NewAdminService(userRepo UserRepository) *adminService {
	return &adminService{
		userRepo: userRepo,
	}
}

// ListUsers returns all users
func (s *adminService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.GetAll(ctx)
}

// ListRoles returns the role catalogue
func (s *adminService) ListRoles(ctx context.Context) ([]models.RoleInfo, error) {
	roles := make([]models.RoleInfo, len(roleCatalogue))
	copy(roles, roleCatalogue)
	return roles, nil
}

// EnsureUser creates the user unless the email is already registered.
// It reports whether a user was created.
func (s *adminService) EnsureUser(ctx context.Context, email, name, password string, role models.Role) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, fmt.Errorf("%w: email and password are required", models.ErrValidation)
	}
	if !role.Valid() {
		return false, fmt.Errorf("%w: unknown role %q", models.ErrValidation, role)
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Email: email, Name: name, PasswordHash: string(hash), Role: role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
