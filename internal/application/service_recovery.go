package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stockdeck/stockdeck/internal/domain"
)

// RequestPasswordReset issues a fresh recovery code when the address belongs
// to an account. Unknown addresses return the same nil result with no
// generator, store, or mail activity, so callers cannot tell whether an
// address is registered.
func (s *Service) RequestPasswordReset(ctx context.Context, req ForgotPasswordRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	if err := s.enforceRateLimit(ctx, "pwreset:"+email, s.cfg.CodeAttemptThreshold, s.cfg.CodeAttemptWindow); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Do not leak whether the account exists.
			return nil
		}
		return err
	}

	code := randomDigits(s.cfg.CodeLength)
	now := s.nowFn()
	// Issue supersedes any prior code for this address: exactly one active
	// code exists afterward.
	if err := s.recovery.Issue(ctx, email, hashCode(code), &user.UserID, now, now.Add(s.cfg.CodeTTL)); err != nil {
		return err
	}

	// Delivery failures are swallowed: the ack must look identical either
	// way, and the user can simply re-request, superseding this code.
	if err := s.mailer.SendRecoveryCode(ctx, email, code); err != nil {
		slog.Default().ErrorContext(ctx, "recovery code delivery failed",
			"module", "application",
			"operation", "request_password_reset",
			"outcome", "failure",
			"error", err,
		)
	}
	return nil
}

// VerifyResetCode checks a submitted code without consuming it, so the same
// code can still complete the reset step afterward.
func (s *Service) VerifyResetCode(ctx context.Context, req VerifyResetCodeRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	if err := validateCode(req.Code, s.cfg.CodeLength); err != nil {
		return err
	}
	if err := s.enforceRateLimit(ctx, "pwverify:"+email, s.cfg.CodeAttemptThreshold, s.cfg.CodeAttemptWindow); err != nil {
		return err
	}
	return s.verifyRecoveryCode(ctx, email, req.Code, false)
}

// ResetPassword re-verifies the code and replaces the credential. Reset is
// reachable without a prior VerifyResetCode call, so verification happens
// here again unconditionally. The credential update is applied before the
// code is consumed: a crash in between leaves the code valid for retry
// rather than silently failing an already-applied change.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	if err := validateCode(req.Code, s.cfg.CodeLength); err != nil {
		return err
	}
	if err := domain.ValidatePassword(req.NewPassword); err != nil {
		return err
	}
	if err := s.enforceRateLimit(ctx, "pwverify:"+email, s.cfg.CodeAttemptThreshold, s.cfg.CodeAttemptWindow); err != nil {
		return err
	}

	if err := s.verifyRecoveryCode(ctx, email, req.Code, false); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrCodeInvalid
		}
		return err
	}

	passwordHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.UserID, passwordHash, s.nowFn()); err != nil {
		return err
	}
	return s.recovery.Consume(ctx, email, hashCode(req.Code))
}

// verifyRecoveryCode hashes the submitted code and checks the store. Expiry
// is enforced by the lookup itself. With consumeOnSuccess the matching row
// is also deleted, making the code single-use.
func (s *Service) verifyRecoveryCode(ctx context.Context, email, code string, consumeOnSuccess bool) error {
	digest := hashCode(code)
	found, err := s.recovery.Lookup(ctx, email, digest, s.nowFn())
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrCodeInvalid
	}
	if consumeOnSuccess {
		return s.recovery.Consume(ctx, email, digest)
	}
	return nil
}

// PurgeExpiredCodes reclaims storage for codes past expiry. Lookup filters
// expiry on read, so this is space reclamation only.
func (s *Service) PurgeExpiredCodes(ctx context.Context) (int64, error) {
	return s.recovery.PurgeExpired(ctx, s.nowFn())
}

func validateCode(code string, length int) error {
	if length <= 0 {
		length = 6
	}
	if len(code) != length {
		return fmt.Errorf("%w: code must be %d digits", domain.ErrInvalidInput, length)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: code must be numeric", domain.ErrInvalidInput)
		}
	}
	return nil
}
