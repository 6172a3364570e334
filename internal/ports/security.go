package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AuthClaims is the immutable session claims envelope. It is built once per
// authentication event and opaque (signed) thereafter; nothing mutates it
// across middleware stages.
type AuthClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type TokenSigner interface {
	Sign(claims AuthClaims) (string, error)
	ParseAndValidate(token string) (AuthClaims, error)
}

// FederatedIdentity is a provider-verified account identity.
type FederatedIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// FederatedVerifier resolves a provider-issued token to a verified identity.
// The provider is an external collaborator; this port is its whole contract.
type FederatedVerifier interface {
	Verify(ctx context.Context, provider, accessToken string) (FederatedIdentity, error)
}
