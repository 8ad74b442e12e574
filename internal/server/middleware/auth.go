package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/stockadmin/console/internal/models"
)

// TokenValidator is the interface that wraps access token validation.
type TokenValidator interface {
	// Method ValidateAccessToken validates the token and returns the user ID and role it was issued for.
	ValidateAccessToken(token string) (int, models.Role, error)
}

// AuthMiddleware validates the bearer access token and stores the user ID and role in the context
func AuthMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return RoleMiddleware(tokens)
}

// RoleMiddleware validates the bearer access token and admits only the allowed roles.
// Without roles any authenticated user is admitted.
func RoleMiddleware(tokens TokenValidator, allowed ...models.Role) func(http.Handler) http.Handler {
	roles := append([]models.Role(nil), allowed...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, role, err := tokens.ValidateAccessToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if len(roles) > 0 && !role.In(roles) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, roleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetUserID retrieves the user ID from context
func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

// GetRole retrieves the user role from context
func GetRole(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(roleKey).(models.Role)
	return role, ok
}
