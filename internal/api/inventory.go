package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/stockadmin/console/internal/models"
)

// ListProducts returns all products
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns a product by its ID
func (c *Client) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid product id")
	}
	var product models.Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+strconv.Itoa(id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct creates a product and returns it
func (c *Client) CreateProduct(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, http.MethodPost, "/api/products", req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct replaces the editable fields of a product
func (c *Client) UpdateProduct(ctx context.Context, id int, req models.ProductRequest) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid product id")
	}
	var product models.Product
	if err := c.do(ctx, http.MethodPut, "/api/products/"+strconv.Itoa(id), req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct deletes a product
func (c *Client) DeleteProduct(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("invalid product id")
	}
	return c.do(ctx, http.MethodDelete, "/api/products/"+strconv.Itoa(id), nil, nil)
}

// ListCategories returns all categories
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory creates a category and returns it
func (c *Client) CreateCategory(ctx context.Context, category models.Category) (*models.Category, error) {
	var created models.Category
	if err := c.do(ctx, http.MethodPost, "/api/categories", category, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListMovements returns stock movements, newest first. productID 0 lists movements of all products.
func (c *Client) ListMovements(ctx context.Context, productID int) ([]models.Movement, error) {
	path := "/api/movements"
	if productID > 0 {
		path += "?" + url.Values{"product_id": {strconv.Itoa(productID)}}.Encode()
	}
	var movements []models.Movement
	if err := c.do(ctx, http.MethodGet, path, nil, &movements); err != nil {
		return nil, err
	}
	return movements, nil
}

// CreateMovement records a stock movement and returns it
func (c *Client) CreateMovement(ctx context.Context, req models.MovementRequest) (*models.Movement, error) {
	var movement models.Movement
	if err := c.do(ctx, http.MethodPost, "/api/movements", req, &movement); err != nil {
		return nil, err
	}
	return &movement, nil
}

// ListUsers returns all users. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListRoles returns the role catalogue. Admin only.
func (c *Client) ListRoles(ctx context.Context) ([]models.RoleInfo, error) {
	var roles []models.RoleInfo
	if err := c.do(ctx, http.MethodGet, "/api/roles", nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}
