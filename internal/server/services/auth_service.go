// Package services implements the business logic of the development API
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stockadmin/console/internal/models"
	"github.com/stockadmin/console/internal/server/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Method GetByEmail retrieves a user by email.
	//
	// If user with such email does not exist, an error wrapping models.ErrNotFound is returned.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, an error wrapping models.ErrNotFound is returned.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// Method GetAll retrieves all users without password hashes.
	GetAll(ctx context.Context) ([]models.User, error)
	// Method Create inserts a user and sets its ID.
	//
	// If the email is taken, an error wrapping models.ErrAlreadyExists is returned.
	Create(ctx context.Context, user *models.User) error
}

// UserTokenRepository is the interface that wraps methods for UserToken table data access
type UserTokenRepository interface {
	// Method Create inserts a new user token into the database.
	Create(ctx context.Context, userToken *models.UserToken) error
	// Method GetByToken retrieves a user token by token string.
	//
	// If the token is not stored, an error wrapping models.ErrNotFound is returned.
	GetByToken(ctx context.Context, token string) (*models.UserToken, error)
	// Method UpdateToken replaces "oldToken" of user "userID" with "newToken".
	//
	// If the old token is not stored anymore, an error wrapping models.ErrNotFound is returned.
	UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error
	// Method DeleteByToken deletes a user token. Deleting a missing token is not an error.
	DeleteByToken(ctx context.Context, token string) error
	// Method DeleteExpiredTokens deletes tokens created at or before "expiryTime" and returns their count.
	DeleteExpiredTokens(ctx context.Context, expiryTime time.Time) (int, error)
}

// authService implements AuthService
type authService struct {
	userRepo       UserRepository
	userTokenRepo  UserTokenRepository
	tokenGenerator *auth.TokenGenerator
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	userTokenRepo UserTokenRepository,
	tokenGenerator *auth.TokenGenerator,
	logger *zap.Logger,
) *authService {
	return &authService{
		userRepo:       userRepo,
		userTokenRepo:  userTokenRepo,
		tokenGenerator: tokenGenerator,
		logger:         logger,
	}
}

// Login authenticates a user and issues a new token pair
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email cannot be empty", models.ErrValidation)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password cannot be empty", models.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.tokenGenerator.GenerateTokens(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.userTokenRepo.Create(ctx, &models.UserToken{UserID: user.ID, Token: refreshToken}); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Role:         user.Role,
		UserID:       user.ID,
	}, nil
}

// Refresh rotates a refresh token and issues a new token pair.
//
// The stored token lookup and the signature check do not depend on each other, so they run in parallel.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token required", models.ErrValidation)
	}

	var userToken *models.UserToken
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.userTokenRepo.GetByToken(gctx, refreshToken)
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrInvalidToken
		}
		if err != nil {
			return fmt.Errorf("failed to get user token by refresh token: %w", err)
		}
		userToken = t
		return nil
	})
	g.Go(func() error {
		if err := s.tokenGenerator.ValidateRefreshToken(refreshToken); err != nil {
			return models.ErrInvalidToken
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, models.ErrInvalidToken) {
			// Drop the token if it is still stored
			if delErr := s.userTokenRepo.DeleteByToken(ctx, refreshToken); delErr != nil {
				s.logger.Warn("failed to delete invalid refresh token", zap.Error(delErr))
			}
		}
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userToken.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, newRefreshToken, err := s.tokenGenerator.GenerateTokens(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.userTokenRepo.UpdateToken(ctx, refreshToken, newRefreshToken, user.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Rotated concurrently by another request
			return nil, models.ErrInvalidToken
		}
		return nil, err
	}

	return &models.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		Role:         user.Role,
		UserID:       user.ID,
	}, nil
}

// Logout revokes a refresh token
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return fmt.Errorf("%w: refresh token required", models.ErrValidation)
	}
	return s.userTokenRepo.DeleteByToken(ctx, refreshToken)
}

// CleanupExpiredTokens deletes refresh tokens older than maxAge
func (s *authService) CleanupExpiredTokens(ctx context.Context, maxAge time.Duration) (int, error) {
	deleted, err := s.userTokenRepo.DeleteExpiredTokens(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("expired refresh tokens deleted", zap.Int("count", deleted))
	}
	return deleted, nil
}
