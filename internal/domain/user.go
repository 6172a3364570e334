package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the account identity owning products and a credential.
// PasswordHash is empty for accounts created through federated sign-in;
// such accounts authenticate only through their provider until a password
// is set via recovery.
type User struct {
	UserID       uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Provider     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecoveryCode is a hashed one-time passcode bound to a contact address.
// The store is keyed by address rather than user id so lookup stays separate
// from account-existence checks. At most one non-expired row exists per
// address; issuing a new code supersedes any prior one.
type RecoveryCode struct {
	CodeID    uuid.UUID
	Email     string
	CodeHash  string
	UserID    *uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// LoginAttempt records authentication outcomes for audit and lockout controls.
type LoginAttempt struct {
	ID            int64
	UserID        *uuid.UUID
	AttemptAt     time.Time
	IPAddress     string
	Status        string
	FailureReason string
	UserAgent     string
}
