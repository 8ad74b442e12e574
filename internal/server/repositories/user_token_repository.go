package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stockadmin/console/internal/models"
)

// userTokenRepository stores issued refresh tokens. A row exists for every
// refresh token that may still be exchanged.
type userTokenRepository struct {
	db *sql.DB
}

// NewUserTokenRepository creates a new user token repository
func NewUserTokenRepository(db *sql.DB) *userTokenRepository {
	return &userTokenRepository{db: db}
}

// Create stores a freshly issued refresh token
func (r *userTokenRepository) Create(ctx context.Context, userToken *models.UserToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_tokens (user_id, token) VALUES (?, ?)`,
		userToken.UserID, userToken.Token,
	)
	if err != nil {
		return mapWriteError(err, "refresh token")
	}
	return nil
}

// GetByToken looks up a refresh token together with its issue time
func (r *userTokenRepository) GetByToken(ctx context.Context, token string) (*models.UserToken, error) {
	query := `
		SELECT id, user_id, token, created_at
		FROM user_tokens
		WHERE token = ?
		LIMIT 1
	`

	var t models.UserToken
	err := r.db.QueryRowContext(ctx, query, token).Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("refresh token %w", models.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	return &t, nil
}

// UpdateToken rotates oldToken into newToken and restarts its age.
// A token that is already rotated or revoked matches no row, so two concurrent
// refreshes with the same token cannot both succeed.
func (r *userTokenRepository) UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE user_tokens
		SET token = ?, created_at = CURRENT_TIMESTAMP
		WHERE token = ? AND user_id = ?
	`, newToken, oldToken, userID)
	if err != nil {
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	n, err := affectedRows(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("refresh token %w", models.ErrNotFound)
	}

	return nil
}

// DeleteByToken revokes a refresh token. Revoking an unknown token is not an error.
func (r *userTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// DeleteExpiredTokens removes refresh tokens issued at or before expiryTime
func (r *userTokenRepository) DeleteExpiredTokens(ctx context.Context, expiryTime time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE created_at <= ?`, expiryTime)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return affectedRows(result)
}
