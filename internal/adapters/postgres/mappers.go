package postgres

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/stockdeck/stockdeck/internal/domain"
)

func toDomainUser(row userModel) domain.User {
	return domain.User{
		UserID:       row.UserID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		Role:         row.Role,
		Provider:     row.Provider,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func toDomainProduct(row productModel) domain.Product {
	return domain.Product{
		ProductID:   row.ProductID,
		UserID:      row.UserID,
		Name:        row.Name,
		Description: row.Description,
		Category:    row.Category,
		Price:       row.Price,
		Stock:       row.Stock,
		Status:      row.Status,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
