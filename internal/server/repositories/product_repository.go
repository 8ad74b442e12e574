package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stockadmin/console/internal/models"
)

// productRepository implements ProductRepository
type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB) *productRepository {
	return &productRepository{
		db: db,
	}
}

// GetAll retrieves all products ordered by name
func (r *productRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	query := `
		SELECT id, sku, name, category_id, price, stock, created_at
		FROM products
		ORDER BY name, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.CategoryID, &p.Price, &p.Stock, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a product by ID
func (r *productRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	query := `
		SELECT id, sku, name, category_id, price, stock, created_at
		FROM products
		WHERE id = ?
		LIMIT 1
	`

	p := &models.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.SKU, &p.Name, &p.CategoryID, &p.Price, &p.Stock, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}

	return p, nil
}

// Create inserts a new product with zero stock and sets its ID
func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (sku, name, category_id, price, stock)
		VALUES (?, ?, ?, ?, 0)
	`

	result, err := r.db.ExecContext(ctx, query, product.SKU, product.Name, product.CategoryID, product.Price)
	if err != nil {
		return mapWriteError(err, "product")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	product.ID = int(id)
	product.Stock = 0

	return nil
}

// Update replaces the editable fields of a product. Stock is changed only through movements.
func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products
		SET sku = ?, name = ?, category_id = ?, price = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, product.SKU, product.Name, product.CategoryID, product.Price, product.ID)
	if err != nil {
		return mapWriteError(err, "product")
	}

	rowsAffected, err := affectedRows(result)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// MySQL reports 0 rows for unchanged values too
		if _, err := r.GetByID(ctx, product.ID); err != nil {
			return err
		}
	}

	return nil
}

// Delete deletes a product by ID
func (r *productRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM products WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return mapWriteError(err, "product")
	}

	rowsAffected, err := affectedRows(result)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("product %w", models.ErrNotFound)
	}

	return nil
}
