package postgres

import (
	"gorm.io/gorm"

	"github.com/stockdeck/stockdeck/internal/ports"
)

// Repositories bundles all persistence adapters over one shared connection.
type Repositories struct {
	Users    ports.UserRepository
	Products ports.ProductRepository
	Recovery ports.RecoveryCodeRepository
	Attempts ports.LoginAttemptRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:    &userRepository{db: db},
		Products: &productRepository{db: db},
		Recovery: &recoveryCodeRepository{db: db},
		Attempts: &loginAttemptRepository{db: db},
	}
}
