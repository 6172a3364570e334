package postgres

import (
	"time"

	"github.com/google/uuid"
)

type userModel struct {
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"column:email"`
	Name         string    `gorm:"column:name"`
	PasswordHash string    `gorm:"column:password_hash"`
	Role         string    `gorm:"column:role"`
	Provider     string    `gorm:"column:provider"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

type productModel struct {
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id"`
	Name        string    `gorm:"column:name"`
	Description string    `gorm:"column:description"`
	Category    string    `gorm:"column:category"`
	Price       float64   `gorm:"column:price"`
	Stock       int       `gorm:"column:stock"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (productModel) TableName() string { return "products" }

type recoveryCodeModel struct {
	CodeID    uuid.UUID  `gorm:"column:code_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string     `gorm:"column:email"`
	CodeHash  string     `gorm:"column:code_hash"`
	UserID    *uuid.UUID `gorm:"column:user_id"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	ExpiresAt time.Time  `gorm:"column:expires_at"`
}

func (recoveryCodeModel) TableName() string { return "recovery_codes" }

type loginAttemptModel struct {
	ID            int64      `gorm:"column:id;primaryKey"`
	UserID        *uuid.UUID `gorm:"column:user_id"`
	AttemptAt     time.Time  `gorm:"column:attempt_at"`
	IPAddress     *string    `gorm:"column:ip_address"`
	Status        string     `gorm:"column:status"`
	FailureReason string     `gorm:"column:failure_reason"`
	UserAgent     string     `gorm:"column:user_agent"`
}

func (loginAttemptModel) TableName() string { return "login_attempts" }
