package auth

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stockadmin/console/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "b8a3c2267dc85f855dea9b46b452bf20"

func TestNewTokenGenerator(t *testing.T) {
	tg := NewTokenGenerator("test-secret-key", time.Hour, 7*24*time.Hour)

	assert.NotNil(t, tg)
	assert.Equal(t, "test-secret-key", tg.secret)
	assert.Equal(t, time.Hour, tg.accessTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, tg.refreshTokenExpiry)
}

func TestTokenGenerator_GenerateTokens(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Hour, 7*24*time.Hour)

	tests := []struct {
		name   string
		userID int
		role   models.Role
	}{
		{name: "admin", userID: 1, role: models.RoleAdmin},
		{name: "manager", userID: 123, role: models.RoleManager},
		{name: "employee with max id", userID: math.MaxInt32, role: models.RoleEmployee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accessToken, refreshToken, err := tg.GenerateTokens(tt.userID, tt.role)

			require.NoError(t, err)
			assert.NotEqual(t, accessToken, refreshToken)

			userID, role, err := tg.ValidateAccessToken(accessToken)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, userID)
			assert.Equal(t, tt.role, role)

			assert.NoError(t, tg.ValidateRefreshToken(refreshToken))
		})
	}

	t.Run("refresh tokens are unique", func(t *testing.T) {
		_, first, err := tg.GenerateTokens(1, models.RoleAdmin)
		require.NoError(t, err)
		_, second, err := tg.GenerateTokens(1, models.RoleAdmin)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}

func TestTokenGenerator_ValidateAccessToken(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Hour, 7*24*time.Hour)
	sign := func(claims jwt.MapClaims, secret string) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "malformed", token: "not.a.token"},
		{name: "wrong secret", token: sign(jwt.MapClaims{"user_id": 1, "role": "admin", "type": "access", "exp": future}, "other")},
		{name: "expired", token: sign(jwt.MapClaims{"user_id": 1, "role": "admin", "type": "access", "exp": time.Now().Add(-time.Minute).Unix()}, testSecret)},
		{name: "refresh token", token: sign(jwt.MapClaims{"type": "refresh", "exp": future}, testSecret)},
		{name: "missing user id", token: sign(jwt.MapClaims{"role": "admin", "type": "access", "exp": future}, testSecret)},
		{name: "numeric role", token: sign(jwt.MapClaims{"user_id": 1, "role": 3, "type": "access", "exp": future}, testSecret)},
		{name: "unknown role", token: sign(jwt.MapClaims{"user_id": 1, "role": "root", "type": "access", "exp": future}, testSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, role, err := tg.ValidateAccessToken(tt.token)

			assert.Error(t, err)
			assert.Zero(t, userID)
			assert.Empty(t, role)
		})
	}

	t.Run("none algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 1, "role": "admin", "type": "access", "exp": future}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, _, err = tg.ValidateAccessToken(token)

		assert.Error(t, err)
	})
}

func TestTokenGenerator_ValidateRefreshToken(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Hour, 7*24*time.Hour)
	accessToken, refreshToken, err := tg.GenerateTokens(1, models.RoleAdmin)
	require.NoError(t, err)

	assert.NoError(t, tg.ValidateRefreshToken(refreshToken))

	err = tg.ValidateRefreshToken(accessToken)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "token type is not refresh"))

	expired := NewTokenGenerator(testSecret, time.Hour, -time.Minute)
	_, staleRefresh, err := expired.GenerateTokens(1, models.RoleAdmin)
	require.NoError(t, err)
	assert.Error(t, tg.ValidateRefreshToken(staleRefresh))
}
