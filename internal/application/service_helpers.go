package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockdeck/stockdeck/internal/domain"
)

// normalizeEmail canonicalizes and validates email format before persistence/comparison.
func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return trimmed, nil
}

// hashCode stores one-way code fingerprints instead of raw secrets.
func hashCode(code string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(sum[:])
}

// randomDigits returns a uniformly distributed zero-padded numeric code.
// Rejection sampling keeps the distribution flat across the full width.
func randomDigits(size int) string {
	if size <= 0 {
		size = 6
	}
	max := uint64(1)
	for i := 0; i < size; i++ {
		max *= 10
	}
	// Largest multiple of max that fits in uint64; values above it would
	// bias the low codes.
	bound := (^uint64(0) / max) * max
	var raw [8]byte
	for {
		_, _ = rand.Read(raw[:])
		n := binary.BigEndian.Uint64(raw[:])
		if n < bound {
			return fmt.Sprintf("%0*d", size, n%max)
		}
	}
}

// recordFailure stores failed login context for audit and lockout policies.
func (s *Service) recordFailure(ctx context.Context, userID *uuid.UUID, req LoginRequest, reason string) {
	if err := s.attempts.Insert(ctx, domain.LoginAttempt{
		UserID:        userID,
		AttemptAt:     s.nowFn(),
		IPAddress:     req.IPAddress,
		Status:        "FAILED",
		FailureReason: reason,
		UserAgent:     req.UserAgent,
	}); err != nil {
		slog.Default().WarnContext(ctx, "failed to persist login attempt",
			"module", "application",
			"operation", "record_login_failure",
			"outcome", "failure",
			"reason", reason,
			"error", err,
		)
	}
}

func (s *Service) enforceRateLimit(ctx context.Context, key string, threshold int, window time.Duration) error {
	if s.lockouts == nil || threshold <= 0 || window <= 0 {
		return nil
	}
	if strings.TrimSpace(key) == "" {
		return nil
	}

	state, err := s.lockouts.Get(ctx, key)
	if err == nil && state.LockedUntil != nil && state.LockedUntil.After(s.nowFn()) {
		return domain.ErrRateLimited
	}

	now := s.nowFn()
	updated, err := s.lockouts.RecordFailure(ctx, key, now, threshold, window)
	if err != nil {
		slog.Default().WarnContext(ctx, "rate-limit state unavailable",
			"module", "application",
			"operation", "rate_limit",
			"outcome", "warning",
			"key", key,
			"error", err,
		)
		return nil
	}
	if updated.LockedUntil != nil && updated.LockedUntil.After(now) {
		return domain.ErrRateLimited
	}
	return nil
}
