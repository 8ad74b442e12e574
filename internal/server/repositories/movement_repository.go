package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stockadmin/console/internal/models"
)

// movementRepository implements MovementRepository
type movementRepository struct {
	db *sql.DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *sql.DB) *movementRepository {
	return &movementRepository{
		db: db,
	}
}

// GetAll retrieves movements newest first. productID 0 selects all products.
func (r *movementRepository) GetAll(ctx context.Context, productID int) ([]models.Movement, error) {
	query := `
		SELECT id, product_id, type, quantity, note, user_id, created_at
		FROM movements
	`
	args := []any{}
	if productID > 0 {
		query += ` WHERE product_id = ?`
		args = append(args, productID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	movements := []models.Movement{}
	for rows.Next() {
		var m models.Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.Note, &m.UserID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movements: %w", err)
	}

	return movements, nil
}

// Create records a movement and applies it to the product stock in one transaction.
// It returns the resulting stock level.
func (r *movementRepository) Create(ctx context.Context, movement *models.Movement) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var stock int
	err = tx.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ? FOR UPDATE`, movement.ProductID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("product %w", models.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock product stock: %w", err)
	}

	newStock, err := ApplyMovement(stock, movement.Type, movement.Quantity)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = ? WHERE id = ?`, newStock, movement.ProductID); err != nil {
		return 0, fmt.Errorf("failed to update product stock: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO movements (product_id, type, quantity, note, user_id)
		VALUES (?, ?, ?, ?, ?)
	`, movement.ProductID, movement.Type, movement.Quantity, movement.Note, movement.UserID)
	if err != nil {
		return 0, mapWriteError(err, "movement")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit movement: %w", err)
	}
	movement.ID = int(id)

	return newStock, nil
}

// ApplyMovement computes the stock after a movement. Outgoing movements may not drive stock below zero.
func ApplyMovement(stock int, movementType models.MovementType, quantity int) (int, error) {
	switch movementType {
	case models.MovementIn:
		return stock + quantity, nil
	case models.MovementOut:
		if quantity > stock {
			return 0, fmt.Errorf("%w: %d requested, %d available", models.ErrInsufficientStock, quantity, stock)
		}
		return stock - quantity, nil
	case models.MovementAdjust:
		if quantity < 0 {
			return 0, fmt.Errorf("%w: stock cannot be negative", models.ErrValidation)
		}
		return quantity, nil
	}
	return 0, fmt.Errorf("%w: unknown movement type %q", models.ErrValidation, movementType)
}
