package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stockadmin/console/internal/models"
	"go.uber.org/zap"
)

// ProductRepository is the interface that wraps methods for Product table data access
type ProductRepository interface {
	// Method GetAll retrieves all products.
	GetAll(ctx context.Context) ([]models.Product, error)
	// Method GetByID retrieves a product by ID.
	//
	// If product with such ID does not exist, an error wrapping models.ErrNotFound is returned.
	GetByID(ctx context.Context, id int) (*models.Product, error)
	// Method Create inserts a product with zero stock and sets its ID.
	Create(ctx context.Context, product *models.Product) error
	// Method Update replaces the editable fields of a product.
	Update(ctx context.Context, product *models.Product) error
	// Method Delete deletes a product by ID.
	Delete(ctx context.Context, id int) error
}

// CategoryRepository is the interface that wraps methods for Category table data access
type CategoryRepository interface {
	// Method GetAll retrieves all categories.
	GetAll(ctx context.Context) ([]models.Category, error)
	// Method Create inserts a category and sets its ID.
	Create(ctx context.Context, category *models.Category) error
}

// MovementRepository is the interface that wraps methods for Movement table data access
type MovementRepository interface {
	// Method GetAll retrieves movements newest first; "productID" 0 selects all products.
	GetAll(ctx context.Context, productID int) ([]models.Movement, error)
	// Method Create records a movement, applies it to the product stock and returns the new stock level.
	//
	// Outgoing movements exceeding the stock fail with an error wrapping models.ErrInsufficientStock.
	Create(ctx context.Context, movement *models.Movement) (int, error)
}

// inventoryService implements InventoryService
type inventoryService struct {
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	movementRepo MovementRepository
	logger       *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	movementRepo MovementRepository,
	logger *zap.Logger,
) *inventoryService {
	return &inventoryService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		movementRepo: movementRepo,
		logger:       logger,
	}
}

// ListProducts returns all products
func (s *inventoryService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.productRepo.GetAll(ctx)
}

// GetProduct returns a product by ID
func (s *inventoryService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid product id", models.ErrValidation)
	}
	return s.productRepo.GetByID(ctx, id)
}

// CreateProduct validates and creates a product
func (s *inventoryService) CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, error) {
	product, err := productFromRequest(req)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	product.CreatedAt = time.Now().UTC()

	return product, nil
}

// UpdateProduct validates and updates a product and returns its stored state
func (s *inventoryService) UpdateProduct(ctx context.Context, id int, req *models.ProductRequest) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid product id", models.ErrValidation)
	}
	product, err := productFromRequest(req)
	if err != nil {
		return nil, err
	}
	product.ID = id

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return s.productRepo.GetByID(ctx, id)
}

// DeleteProduct deletes a product
func (s *inventoryService) DeleteProduct(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", models.ErrValidation)
	}
	return s.productRepo.Delete(ctx, id)
}

// ListCategories returns all categories
func (s *inventoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.GetAll(ctx)
}

// CreateCategory validates and creates a category
func (s *inventoryService) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	c := &models.Category{
		Name:        strings.TrimSpace(category.Name),
		Description: strings.TrimSpace(category.Description),
	}
	if c.Name == "" {
		return nil, fmt.Errorf("%w: category name cannot be empty", models.ErrValidation)
	}

	if err := s.categoryRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// ListMovements returns movements, optionally of one product
func (s *inventoryService) ListMovements(ctx context.Context, productID int) ([]models.Movement, error) {
	if productID < 0 {
		return nil, fmt.Errorf("%w: invalid product id", models.ErrValidation)
	}
	return s.movementRepo.GetAll(ctx, productID)
}

// CreateMovement validates and records a stock movement made by userID
func (s *inventoryService) CreateMovement(ctx context.Context, userID int, req *models.MovementRequest) (*models.Movement, error) {
	if req.ProductID <= 0 {
		return nil, fmt.Errorf("%w: invalid product id", models.ErrValidation)
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: movement type must be one of in, out, adjust", models.ErrValidation)
	}
	if req.Type == models.MovementAdjust {
		if req.Quantity < 0 {
			return nil, fmt.Errorf("%w: adjusted stock cannot be negative", models.ErrValidation)
		}
	} else if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", models.ErrValidation)
	}

	movement := &models.Movement{
		ProductID: req.ProductID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Note:      strings.TrimSpace(req.Note),
		UserID:    userID,
	}

	stock, err := s.movementRepo.Create(ctx, movement)
	if err != nil {
		return nil, err
	}
	movement.CreatedAt = time.Now().UTC()

	s.logger.Info("stock movement recorded",
		zap.Int("product_id", movement.ProductID),
		zap.String("type", string(movement.Type)),
		zap.Int("quantity", movement.Quantity),
		zap.Int("stock", stock),
		zap.Int("user_id", userID),
	)

	return movement, nil
}

func productFromRequest(req *models.ProductRequest) (*models.Product, error) {
	p := &models.Product{
		SKU:        strings.TrimSpace(req.SKU),
		Name:       strings.TrimSpace(req.Name),
		CategoryID: req.CategoryID,
		Price:      req.Price,
	}

	switch {
	case p.SKU == "":
		return nil, fmt.Errorf("%w: sku cannot be empty", models.ErrValidation)
	case p.Name == "":
		return nil, fmt.Errorf("%w: name cannot be empty", models.ErrValidation)
	case p.CategoryID <= 0:
		return nil, fmt.Errorf("%w: category is required", models.ErrValidation)
	case p.Price < 0:
		return nil, fmt.Errorf("%w: price cannot be negative", models.ErrValidation)
	}

	return p, nil
}
