package ports

import (
	"context"
	"time"
)

// LockoutState is the current lockout envelope for a rate-limited key.
// It is cache-backed to avoid hot writes on every failed attempt.
type LockoutState struct {
	FailedCount int
	LockedUntil *time.Time
}

// LockoutStore handles short-lived brute-force protection state. It backs
// both the login lockout and the recovery-code attempt limiter.
type LockoutStore interface {
	Get(ctx context.Context, key string) (LockoutState, error)
	RecordFailure(ctx context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (LockoutState, error)
	Clear(ctx context.Context, key string) error
}
