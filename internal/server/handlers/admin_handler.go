package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stockadmin/console/internal/models"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps methods for admin operations
type AdminService interface {
	// Method ListUsers retrieves all users without their password hashes.
	ListUsers(ctx context.Context) ([]models.User, error)
	// Method ListRoles retrieves the role catalogue.
	ListRoles(ctx context.Context) ([]models.RoleInfo, error)
}

// AdminHandler handles admin HTTP requests
type AdminHandler struct {
	BaseHandler
	adminService AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		adminService: adminService,
	}
}

// RegisterRoutes registers admin routes.
// Note: This assumes the router already enforces the admin role
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users", h.ListUsers)
	r.Get("/roles", h.ListRoles)
}

// ListUsers handles GET /users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err, "get users")
		return
	}

	h.RespondJSON(w, http.StatusOK, users)
}

// ListRoles handles GET /roles
func (h *AdminHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.adminService.ListRoles(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err, "get roles")
		return
	}

	h.RespondJSON(w, http.StatusOK, roles)
}
