package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stockdeck/stockdeck/internal/application"
	"github.com/stockdeck/stockdeck/internal/domain"
)

func signupUser(t *testing.T, f *fixture, email, password string) {
	t.Helper()
	_, err := f.service.Signup(context.Background(), application.SignupRequest{
		Name:     "Test User",
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
}

func TestRequestPasswordResetUnknownAddress(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	if err := f.service.RequestPasswordReset(ctx, application.ForgotPasswordRequest{
		Email: "nobody@example.com",
	}); err != nil {
		t.Fatalf("unknown address must produce the same nil ack, got %v", err)
	}
	if len(f.mailer.sentMails()) != 0 {
		t.Fatalf("no mail may be sent for an unknown address")
	}
	if _, ok := f.recovery.get("nobody@example.com"); ok {
		t.Fatalf("no code may be stored for an unknown address")
	}
}

func TestRequestPasswordResetIssuesAndDelivers(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	signupUser(t, f, "user@example.com", "SecurePass123")

	if err := f.service.RequestPasswordReset(ctx, application.ForgotPasswordRequest{
		Email: "User@Example.com ",
	}); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}

	sent := f.mailer.sentMails()
	if len(sent) != 1 {
		t.Fatalf("expected exactly one mail, got %d", len(sent))
	}
	if sent[0].Email != "user@example.com" {
		t.Fatalf("mail sent to %q, want normalized address", sent[0].Email)
	}
	if len(sent[0].Code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", sent[0].Code)
	}
	for _, r := range sent[0].Code {
		if r < '0' || r > '9' {
			t.Fatalf("code %q contains a non-digit", sent[0].Code)
		}
	}

	stored, ok := f.recovery.get("user@example.com")
	if !ok {
		t.Fatalf("expected a stored recovery code")
	}
	if stored.CodeHash == sent[0].Code {
		t.Fatalf("code must be stored hashed, not in plaintext")
	}
}

func TestRequestPasswordResetSupersedesPriorCode(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	signupUser(t, f, "user@example.com", "SecurePass123")

	if err := f.service.RequestPasswordReset(ctx, application.ForgotPasswordRequest{Email: "user@example.com"}); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	first := f.mailer.lastCode()
	if err := f.service.RequestPasswordReset(ctx, application.ForgotPasswordRequest{Email: "user@example.com"}); err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	second := f.mailer.lastCode()

	err := f.service.VerifyResetCode(ctx, application.VerifyResetCodeRequest{Email: "user@example.com", Code: first})
	if first != second && !errors.Is(err, domain.ErrCodeInvalid) {
		t.Fatalf("superseded code must be invalid, got %v", err)
	}
	if err := f.service.VerifyResetCode(ctx, application.VerifyResetCodeRequest{Email: "user@example.com", Code: second}); err != nil {
		t.Fatalf("latest code must verify: %v", err)
	}
}

func TestVerifyResetCodeDoesNotConsume(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	signupUser(t, f, "user@example.com", "SecurePass123")

	if err := f.service.RequestPasswordReset(ctx, application.ForgotPasswordRequest{Email: "user@example.com"}); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	code := f.mailer.lastCode()

	for i := 0; i < 3; i++ {
		if err := f.service.VerifyResetCode(ctx, application.VerifyResetCodeRequest{Email: "user@example.com", Code: code}); err != nil {
			t.Fatalf("verify %d failed: %v", i+1, err)
		}
	}
	if err := f.service.ResetPassword(ctx, application.ResetPasswordRequest{
		Email:       "user@example.com",
		Code:        code,
		NewPassword: "BrandNewPass1",
	}); err != nil {
		t.Fatalf("reset after repeated verifies failed: %v", err)
	}
}

func TestResetPasswordConsumesCode(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	signupUser(t, f, "user@example.com", "SecurePass123")

	if err := f.service.RequestPasswordReset(ctx, application.ForgotPasswordRequest{Email: "user@example.com"}); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	code := f.mailer.lastCode()

	if err := f.service.ResetPassword(ctx, application.ResetPasswordRequest{
		Email:       "user@example.com",
		Code:        code,
		NewPassword: "BrandNewPass1",
	}); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	user, err := f.users.GetByEmail(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("user lookup failed: %v", err)
	}
	if user.PasswordHash != "hash:BrandNewPass1" {
		t.Fatalf("credential was not replaced, got %q", user.PasswordHash)
	}

	if _, err := f.service.Login(ctx, application.LoginRequest{
		Email:    "user@example.com",
		Password: "BrandNewPass1",
	}); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, err := f.service.Login(ctx, application.LoginRequest{
		Email:    "user@example.com",
		Password: "SecurePass123",
	}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password must be rejected, got %v", err)
	}

	err = f.service.ResetPassword(ctx, application.ResetPasswordRequest{
		Email:       "user@example.com",
		Code:        code,
		NewPassword: "AnotherPass99",
	})
	if !errors.Is(err, domain.ErrCodeInvalid) {
		t.Fatalf("consumed code must not be reusable, got %v", err)
	}
}

func TestExpiredCodeRejectedAndCredentialUnchanged(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	signupUser(t, f, "user@example.com", "SecurePass123")

	if err := f.service.RequestPasswordReset(ctx, application.ForgotPasswordRequest{Email: "user@example.com"}); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	code := f.mailer.lastCode()
	// A code whose expiry is not strictly in the future is dead.
	f.recovery.expireNow("user@example.com")

	if err := f.service.VerifyResetCode(ctx, application.VerifyResetCodeRequest{
		Email: "user@example.com",
		Code:  code,
	}); !errors.Is(err, domain.ErrCodeInvalid) {
		t.Fatalf("expired code must be invalid on verify, got %v", err)
	}
	if err := f.service.ResetPassword(ctx, application.ResetPasswordRequest{
		Email:       "user@example.com",
		Code:        code,
		NewPassword: "BrandNewPass1",
	}); !errors.Is(err, domain.ErrCodeInvalid) {
		t.Fatalf("expired code must be invalid on reset, got %v", err)
	}

	user, err := f.users.GetByEmail(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("user lookup failed: %v", err)
	}
	if user.PasswordHash != "hash:SecurePass123" {
		t.Fatalf("credential must be untouched after a failed reset, got %q", user.PasswordHash)
	}
}

func TestVerifyResetCodeRejectsWrongAndMalformedCodes(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	signupUser(t, f, "user@example.com", "SecurePass123")

	if err := f.service.RequestPasswordReset(ctx, application.ForgotPasswordRequest{Email: "user@example.com"}); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	code := f.mailer.lastCode()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := f.service.VerifyResetCode(ctx, application.VerifyResetCodeRequest{
		Email: "user@example.com",
		Code:  wrong,
	}); !errors.Is(err, domain.ErrCodeInvalid) {
		t.Fatalf("wrong code must be invalid, got %v", err)
	}

	if err := f.service.VerifyResetCode(ctx, application.VerifyResetCodeRequest{
		Email: "other@example.com",
		Code:  code,
	}); !errors.Is(err, domain.ErrCodeInvalid) {
		t.Fatalf("code bound to another address must be invalid, got %v", err)
	}

	for _, malformed := range []string{"", "12345", "1234567", "12345a"} {
		if err := f.service.VerifyResetCode(ctx, application.VerifyResetCodeRequest{
			Email: "user@example.com",
			Code:  malformed,
		}); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("malformed code %q must fail validation, got %v", malformed, err)
		}
	}
}

func TestRequestPasswordResetSwallowsDeliveryFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	signupUser(t, f, "user@example.com", "SecurePass123")
	f.mailer.setFail(true)

	if err := f.service.RequestPasswordReset(ctx, application.ForgotPasswordRequest{
		Email: "user@example.com",
	}); err != nil {
		t.Fatalf("delivery failure must not surface to the caller, got %v", err)
	}
	if _, ok := f.recovery.get("user@example.com"); !ok {
		t.Fatalf("code issuance must not roll back on delivery failure")
	}
}

func TestPurgeExpiredCodes(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	signupUser(t, f, "stale@example.com", "SecurePass123")
	signupUser(t, f, "fresh@example.com", "SecurePass123")

	if err := f.service.RequestPasswordReset(ctx, application.ForgotPasswordRequest{Email: "stale@example.com"}); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	if err := f.service.RequestPasswordReset(ctx, application.ForgotPasswordRequest{Email: "fresh@example.com"}); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	freshCode := f.mailer.lastCode()
	f.recovery.expireNow("stale@example.com")

	removed, err := f.service.PurgeExpiredCodes(ctx)
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 purged code, got %d", removed)
	}
	if err := f.service.VerifyResetCode(ctx, application.VerifyResetCodeRequest{
		Email: "fresh@example.com",
		Code:  freshCode,
	}); err != nil {
		t.Fatalf("unexpired code must survive the purge: %v", err)
	}
}

func TestRecoveryRateLimit(t *testing.T) {
	t.Parallel()

	cfg := defaultTestConfig()
	cfg.CodeAttemptThreshold = 3
	f := newFixtureWithConfig(cfg)
	ctx := context.Background()
	signupUser(t, f, "user@example.com", "SecurePass123")

	var rateLimited bool
	for i := 0; i < 5; i++ {
		err := f.service.VerifyResetCode(ctx, application.VerifyResetCodeRequest{
			Email: "user@example.com",
			Code:  "123456",
		})
		if errors.Is(err, domain.ErrRateLimited) {
			rateLimited = true
			break
		}
		if !errors.Is(err, domain.ErrCodeInvalid) {
			t.Fatalf("attempt %d: unexpected error %v", i+1, err)
		}
	}
	if !rateLimited {
		t.Fatalf("repeated verify attempts must trip the rate limit")
	}
}

func TestRequestPasswordResetRejectsInvalidEmail(t *testing.T) {
	t.Parallel()

	f := newFixture()
	for _, email := range []string{"", "   ", "not-an-email", "missing@"} {
		err := f.service.RequestPasswordReset(context.Background(), application.ForgotPasswordRequest{Email: email})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("email %q must fail validation, got %v", email, err)
		}
	}
}
