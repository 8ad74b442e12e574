package models

import "time"

// Product represents a stocked item
type Product struct {
	ID         int       `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	CategoryID int       `json:"category_id"`
	Price      float64   `json:"price"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProductRequest represents the payload for product creation and update
type ProductRequest struct {
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	CategoryID int     `json:"category_id"`
	Price      float64 `json:"price"`
}

// Category groups products
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// MovementType is the direction of a stock movement
type MovementType string

// MovementType constants
const (
	MovementIn     MovementType = "in"
	MovementOut    MovementType = "out"
	MovementAdjust MovementType = "adjust"
)

// Valid reports whether t is a known movement type
func (t MovementType) Valid() bool {
	return t == MovementIn || t == MovementOut || t == MovementAdjust
}

// Movement represents a change of stock for a product.
// For "adjust" movements Quantity is the new absolute stock level.
type Movement struct {
	ID        int          `json:"id"`
	ProductID int          `json:"product_id"`
	Type      MovementType `json:"type"`
	Quantity  int          `json:"quantity"`
	Note      string       `json:"note"`
	UserID    int          `json:"user_id"`
	CreatedAt time.Time    `json:"created_at"`
}

// MovementRequest represents the payload for movement creation
type MovementRequest struct {
	ProductID int          `json:"product_id"`
	Type      MovementType `json:"type"`
	Quantity  int          `json:"quantity"`
	Note      string       `json:"note"`
}

// User represents a console user
type User struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"` // Never serialize password hash
	Role         Role   `json:"role"`
}

// UserToken represents a stored refresh token for a user
type UserToken struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
}
