package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stockadmin/console/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewAdminService(t *testing.T) {
	repo := &mockUserRepository{}

	svc := NewAdminService(repo)

	assert.NotNil(t, svc)
	assert.Equal(t, repo, svc.userRepo)
}

func TestAdminService_ListUsers(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := NewAdminService(&mockUserRepository{users: []models.User{{ID: 1, Email: "admin@example.com", Role: models.RoleAdmin}}})

		users, err := svc.ListUsers(context.Background())

		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("database error", func(t *testing.T) {
		svc := NewAdminService(&mockUserRepository{err: errors.New("database error")})

		_, err := svc.ListUsers(context.Background())

		assert.Error(t, err)
	})
}

func TestAdminService_ListRoles(t *testing.T) {
	svc := NewAdminService(&mockUserRepository{})

	roles, err := svc.ListRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 3)
	for _, role := range roles {
		assert.True(t, role.Name.Valid())
		assert.NotEmpty(t, role.Description)
	}

	// callers get a copy
	roles[0].Description = "changed"
	again, err := svc.ListRoles(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "changed", again[0].Description)
}

func TestAdminService_EnsureUser(t *testing.T) {
	tests := []struct {
		name            string
		repo            *mockUserRepository
		email           string
		role            models.Role
		expectedCreated bool
		expectedError   error
	}{
		{
			name:            "creates missing user",
			repo:            &mockUserRepository{err: models.ErrNotFound},
			email:           " Admin@Example.com ",
			role:            models.RoleAdmin,
			expectedCreated: true,
		},
		{
			name:  "keeps existing user",
			repo:  &mockUserRepository{user: &models.User{ID: 1}},
			email: "admin@example.com",
			role:  models.RoleAdmin,
		},
		{
			name:  "lost creation race",
			repo:  &mockUserRepository{err: models.ErrNotFound, createErr: models.ErrAlreadyExists},
			email: "admin@example.com",
			role:  models.RoleAdmin,
		},
		{name: "unknown role", repo: &mockUserRepository{}, email: "admin@example.com", role: "root", expectedError: models.ErrValidation},
		{name: "empty email", repo: &mockUserRepository{}, email: " ", role: models.RoleAdmin, expectedError: models.ErrValidation},
		{
			name:          "lookup fails",
			repo:          &mockUserRepository{err: errors.New("database error")},
			email:         "admin@example.com",
			role:          models.RoleAdmin,
			expectedError: errors.New("database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAdminService(tt.repo)

			created, err := svc.EnsureUser(context.Background(), tt.email, "Admin", "Password123!", tt.role)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCreated, created)
			if tt.expectedCreated {
				require.NotNil(t, tt.repo.created)
				assert.Equal(t, "admin@example.com", tt.repo.created.Email)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(tt.repo.created.PasswordHash), []byte("Password123!")))
			}
		})
	}
}
