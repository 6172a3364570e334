package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusInStock    = "in_stock"
	StatusOutOfStock = "out_of_stock"
)

// Product is an inventory record exclusively owned by one user.
type Product struct {
	ProductID   uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description string
	Category    string
	Price       float64
	Stock       int
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StockStatus derives the display status from a stock level.
// Status is never written independently of stock.
func StockStatus(stock int) string {
	if stock > 0 {
		return StatusInStock
	}
	return StatusOutOfStock
}

// ValidateProduct enforces field-level constraints before persistence.
func ValidateProduct(name, category string, price float64, stock int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrInvalidInput)
	}
	if stock < 0 {
		return fmt.Errorf("%w: stock must be >= 0", ErrInvalidInput)
	}
	return nil
}
