package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/stockadmin/console/internal/models"
	"github.com/stockadmin/console/internal/server/middleware"
	"go.uber.org/zap"
)

// InventoryService is the interface that wraps methods for products, categories and stock movements.
type InventoryService interface {
	// Method ListProducts retrieves all products.
	ListProducts(ctx context.Context) ([]models.Product, error)
	// Method GetProduct retrieves a product by ID.
	//
	// If product does not exist, an error wrapping models.ErrNotFound is returned together with nil.
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	// Method CreateProduct validates and stores a new product with zero stock.
	//
	// Invalid fields produce models.ErrValidation, a duplicated SKU produces models.ErrAlreadyExists.
	CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, error)
	// Method UpdateProduct validates and replaces the editable fields of a product.
	UpdateProduct(ctx context.Context, id int, req *models.ProductRequest) (*models.Product, error)
	// Method DeleteProduct deletes a product by ID.
	DeleteProduct(ctx context.Context, id int) error
	// Method ListCategories retrieves all categories.
	ListCategories(ctx context.Context) ([]models.Category, error)
	// Method CreateCategory validates and stores a category.
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	// Method ListMovements retrieves movements newest first; "productID" 0 selects all products.
	ListMovements(ctx context.Context, productID int) ([]models.Movement, error)
	// Method CreateMovement records a stock movement made by "userID".
	//
	// Outgoing movements exceeding the stock produce models.ErrInsufficientStock.
	CreateMovement(ctx context.Context, userID int, req *models.MovementRequest) (*models.Movement, error)
}

// InventoryHandler handles inventory HTTP requests
type InventoryHandler struct {
	BaseHandler
	service InventoryService
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(svc InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all inventory handler routes.
// Reads require "authMiddleware", writes additionally go through "writeMiddleware".
func (h *InventoryHandler) RegisterRoutes(r chi.Router, authMiddleware, writeMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/categories", h.ListCategories)
		r.Get("/movements", h.ListMovements)
	})

	r.Group(func(r chi.Router) {
		r.Use(writeMiddleware)
		r.Post("/products", h.CreateProduct)
		r.Put("/products/{id}", h.UpdateProduct)
		r.Delete("/products/{id}", h.DeleteProduct)
		r.Post("/categories", h.CreateCategory)
		r.Post("/movements", h.CreateMovement)
	})
}

// ListProducts handles GET /products
// @Summary List products
// @Tags products
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.Product
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /products [get]
func (h *InventoryHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err, "get products")
		return
	}

	h.RespondJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /products/{id}
// @Summary Get product by ID
// @Tags products
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} map[string]string "Product not found"
// @Router /products/{id} [get]
func (h *InventoryHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, r, err, "get product")
		return
	}

	h.RespondJSON(w, http.StatusOK, product)
}

// CreateProduct handles POST /products
// @Summary Create product
// @Description Requires the admin or manager role.
// @Tags products
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.ProductRequest true "Product"
// @Success 201 {object} models.Product
// @Failure 400 {object} map[string]string "Validation failed"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "SKU already exists"
// @Router /products [post]
func (h *InventoryHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "create product")
		return
	}

	h.RespondJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /products/{id}
func (h *InventoryHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	var req models.ProductRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "update product")
		return
	}

	h.RespondJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/{id}
func (h *InventoryHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.RespondServiceError(w, r, err, "delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /categories
func (h *InventoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err, "get categories")
		return
	}

	h.RespondJSON(w, http.StatusOK, categories)
}

// CreateCategory handles POST /categories
func (h *InventoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req models.Category
	if !h.decodeJSON(w, r, &req) {
		return
	}

	category, err := h.service.CreateCategory(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "create category")
		return
	}

	h.RespondJSON(w, http.StatusCreated, category)
}

// ListMovements handles GET /movements?product_id=
func (h *InventoryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	productID := 0
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			h.RespondError(w, http.StatusBadRequest, "invalid product_id parameter")
			return
		}
		productID = id
	}

	movements, err := h.service.ListMovements(r.Context(), productID)
	if err != nil {
		h.RespondServiceError(w, r, err, "get movements")
		return
	}

	h.RespondJSON(w, http.StatusOK, movements)
}

// CreateMovement handles POST /movements
// @Summary Record stock movement
// @Description Incoming movements add to stock, outgoing ones subtract, adjustments set it.
// @Tags movements
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.MovementRequest true "Movement"
// @Success 201 {object} models.Movement
// @Failure 409 {object} map[string]string "Insufficient stock"
// @Router /movements [post]
func (h *InventoryHandler) CreateMovement(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req models.MovementRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	movement, err := h.service.CreateMovement(r.Context(), userID, &req)
	if err != nil {
		h.RespondServiceError(w, r, err, "create movement")
		return
	}

	h.RespondJSON(w, http.StatusCreated, movement)
}
