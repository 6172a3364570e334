package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stockdeck/stockdeck/internal/domain"
)

// CreateUserParams captures user-creation inputs.
// PasswordHash is empty for federated accounts.
type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Provider     string
	CreatedAt    time.Time
}

// UserRepository defines persistence operations for account identities.
type UserRepository interface {
	Create(ctx context.Context, params CreateUserParams) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string, updatedAt time.Time) error
}

// RecoveryCodeRepository owns the one-time recovery code lifecycle.
// Only code digests pass this boundary; the plaintext never reaches storage.
type RecoveryCodeRepository interface {
	// Issue atomically replaces any prior code for the address with a fresh
	// one. After it returns, at most one non-expired row exists for email.
	Issue(ctx context.Context, email, codeHash string, userID *uuid.UUID, createdAt, expiresAt time.Time) error
	// Lookup reports whether a matching, unexpired code exists. Expiry is
	// filtered here so callers never observe stale rows regardless of sweeps.
	Lookup(ctx context.Context, email, codeHash string, now time.Time) (bool, error)
	// Consume deletes the matching code. Absent rows are not an error.
	Consume(ctx context.Context, email, codeHash string) error
	// PurgeExpired reclaims storage for codes past expiry.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// ProductFilter holds optional typed listing predicates.
// Pointer fields distinguish "unset" from zero values so filters compose
// without sentinel magic.
type ProductFilter struct {
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
	InStock  *bool
}

// Validate rejects filters the query builder cannot express.
func (f ProductFilter) Validate() error {
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return domain.ErrInvalidInput
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return domain.ErrInvalidInput
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return domain.ErrInvalidInput
	}
	return nil
}

// ProductCreateParams captures validated product-creation inputs.
type ProductCreateParams struct {
	UserID      uuid.UUID
	Name        string
	Description string
	Category    string
	Price       float64
	Stock       int
	Status      string
	CreatedAt   time.Time
}

// ProductUpdateParams carries the changed fields of a product update.
// Nil pointers leave the stored value untouched.
type ProductUpdateParams struct {
	Name        *string
	Description *string
	Category    *string
	Price       *float64
	Stock       *int
	Status      *string
	UpdatedAt   time.Time
}

// CategoryCount is a per-category aggregate row.
type CategoryCount struct {
	Category string
	Count    int64
}

// DayCount is a per-day creation aggregate row (date in YYYY-MM-DD).
type DayCount struct {
	Date  string
	Count int64
}

// ProductStats aggregates one owner's inventory for the dashboard.
type ProductStats struct {
	Total        int64
	Categories   []CategoryCount
	InStock      int64
	OutOfStock   int64
	PriceBuckets map[string]int64
	CreatedByDay []DayCount
}

// ProductRepository defines owner-scoped inventory persistence.
// Every method takes the owner id; cross-tenant rows surface as ErrNotFound.
type ProductRepository interface {
	Create(ctx context.Context, params ProductCreateParams) (domain.Product, error)
	GetByID(ctx context.Context, userID, productID uuid.UUID) (domain.Product, error)
	List(ctx context.Context, userID uuid.UUID, filter ProductFilter, limit, offset int) ([]domain.Product, int64, error)
	Update(ctx context.Context, userID, productID uuid.UUID, params ProductUpdateParams) (domain.Product, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID, since time.Time) (ProductStats, error)
}

// LoginAttemptRepository stores login outcomes used by lockout policy and audit.
type LoginAttemptRepository interface {
	Insert(ctx context.Context, attempt domain.LoginAttempt) error
}
