package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stockdeck/stockdeck/internal/domain"
	"github.com/stockdeck/stockdeck/internal/ports"
)

func (s *Service) Signup(ctx context.Context, req SignupRequest) (SignupResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return SignupResponse{}, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return SignupResponse{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return SignupResponse{}, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return SignupResponse{}, fmt.Errorf("%w: email already in use", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return SignupResponse{}, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return SignupResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, ports.CreateUserParams{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: passwordHash,
		Role:         s.cfg.DefaultRole,
		CreatedAt:    s.nowFn(),
	})
	if err != nil {
		return SignupResponse{}, err
	}
	return SignupResponse{UserID: user.UserID}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, err
	}

	lockKey := "login:" + email
	lockState, err := s.lockouts.Get(ctx, lockKey)
	if err == nil && lockState.LockedUntil != nil && lockState.LockedUntil.After(s.nowFn()) {
		return LoginResponse{}, domain.ErrAccountLocked
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.recordFailure(ctx, nil, req, "USER_NOT_FOUND")
		return LoginResponse{}, domain.ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		// Federated-only account: no credential to check, same generic error.
		s.recordFailure(ctx, &user.UserID, req, "NO_PASSWORD_SET")
		return LoginResponse{}, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.recordFailure(ctx, &user.UserID, req, "INVALID_PASSWORD")
		_, _ = s.lockouts.RecordFailure(ctx, lockKey, s.nowFn(), s.cfg.FailedLoginThreshold, s.cfg.LockoutDuration)
		return LoginResponse{}, domain.ErrInvalidCredentials
	}

	_ = s.lockouts.Clear(ctx, lockKey)
	return s.issueSession(user)
}

// LoginWithProvider authenticates through a federated identity provider.
// First sign-in auto-creates a passwordless account bound to the provider.
func (s *Service) LoginWithProvider(ctx context.Context, req FederatedLoginRequest) (LoginResponse, error) {
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		return LoginResponse{}, fmt.Errorf("%w: provider is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.AccessToken) == "" {
		return LoginResponse{}, fmt.Errorf("%w: access token is required", domain.ErrInvalidInput)
	}

	identity, err := s.verifier.Verify(ctx, provider, req.AccessToken)
	if err != nil {
		return LoginResponse{}, domain.ErrUnauthorized
	}
	if identity.Email == "" || !identity.EmailVerified {
		return LoginResponse{}, domain.ErrUnauthorized
	}

	email, err := normalizeEmail(identity.Email)
	if err != nil {
		return LoginResponse{}, domain.ErrUnauthorized
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		name := identity.Name
		if name == "" {
			name = "User"
		}
		user, err = s.users.Create(ctx, ports.CreateUserParams{
			Email:     email,
			Name:      name,
			Role:      s.cfg.DefaultRole,
			Provider:  provider,
			CreatedAt: s.nowFn(),
		})
		if errors.Is(err, domain.ErrConflict) {
			// Lost a concurrent first-sign-in race; the account exists now.
			user, err = s.users.GetByEmail(ctx, email)
		}
	}
	if err != nil {
		return LoginResponse{}, err
	}
	return s.issueSession(user)
}

// GetProfile returns the account behind a validated session.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (ProfileResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ProfileResponse{}, err
	}
	return ProfileResponse{
		UserID:    user.UserID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		Provider:  user.Provider,
		CreatedAt: user.CreatedAt,
	}, nil
}

// ValidateToken checks the bearer token signature and expiry for middleware.
func (s *Service) ValidateToken(_ context.Context, raw string) (ports.AuthClaims, error) {
	claims, err := s.signer.ParseAndValidate(raw)
	if err != nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	if claims.ExpiresAt.Before(s.nowFn()) {
		return ports.AuthClaims{}, domain.ErrTokenExpired
	}
	return claims, nil
}

// issueSession builds the immutable claims envelope once and signs it.
func (s *Service) issueSession(user domain.User) (LoginResponse, error) {
	now := s.nowFn()
	claims := ports.AuthClaims{
		UserID:    user.UserID,
		Email:     user.Email,
		Role:      user.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
	token, err := s.signer.Sign(claims)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("sign session token: %w", err)
	}
	return LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.cfg.SessionTTL.Seconds()),
	}, nil
}
