package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockdeck/stockdeck/internal/ports"
)

type recoveryCodeRepository struct {
	db *gorm.DB
}

var _ ports.RecoveryCodeRepository = (*recoveryCodeRepository)(nil)

// Issue deletes every prior code for the address and inserts the new one in
// a single transaction. Concurrent issuance for the same address serializes
// on the store; last writer wins and exactly one row survives.
func (r *recoveryCodeRepository) Issue(ctx context.Context, email, codeHash string, userID *uuid.UUID, createdAt, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&recoveryCodeModel{}).Error; err != nil {
			return err
		}
		rec := recoveryCodeModel{
			Email:     email,
			CodeHash:  codeHash,
			UserID:    userID,
			CreatedAt: createdAt,
			ExpiresAt: expiresAt,
		}
		return tx.Create(&rec).Error
	})
}

// Lookup matches on address and digest with a strict future expiry, so an
// expired row behaves exactly like a missing one.
func (r *recoveryCodeRepository) Lookup(ctx context.Context, email, codeHash string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&recoveryCodeModel{}).
		Where("email = ?", email).
		Where("code_hash = ?", codeHash).
		Where("expires_at > ?", now).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Consume deletes the matching row; deleting an absent row is a no-op.
func (r *recoveryCodeRepository) Consume(ctx context.Context, email, codeHash string) error {
	return r.db.WithContext(ctx).
		Where("email = ?", email).
		Where("code_hash = ?", codeHash).
		Delete(&recoveryCodeModel{}).Error
}

func (r *recoveryCodeRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&recoveryCodeModel{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
