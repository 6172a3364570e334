package security

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stockdeck/stockdeck/internal/ports"
)

// FederatedProviderConfig describes one upstream identity provider.
type FederatedProviderConfig struct {
	UserInfoURL string
}

// FederatedVerifierConfig wires provider endpoints and the shared HTTP client.
type FederatedVerifierConfig struct {
	HTTPClient *http.Client
	Providers  map[string]FederatedProviderConfig
}

// UserInfoVerifier resolves provider access tokens through the provider's
// userinfo endpoint. The provider remains the source of truth for email
// verification; this adapter only relays its answer.
type UserInfoVerifier struct {
	client    *http.Client
	providers map[string]FederatedProviderConfig
}

func NewUserInfoVerifier(cfg FederatedVerifierConfig) *UserInfoVerifier {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	return &UserInfoVerifier{
		client:    client,
		providers: cfg.Providers,
	}
}

type userInfoResponse struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

func (v *UserInfoVerifier) Verify(ctx context.Context, provider, accessToken string) (ports.FederatedIdentity, error) {
	cfg, ok := v.providers[provider]
	if !ok {
		return ports.FederatedIdentity{}, fmt.Errorf("unknown provider %q", provider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.UserInfoURL, nil)
	if err != nil {
		return ports.FederatedIdentity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := v.client.Do(req)
	if err != nil {
		return ports.FederatedIdentity{}, fmt.Errorf("userinfo request: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return ports.FederatedIdentity{}, fmt.Errorf("userinfo status %d", res.StatusCode)
	}

	var info userInfoResponse
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return ports.FederatedIdentity{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return ports.FederatedIdentity{}, fmt.Errorf("userinfo missing subject")
	}

	return ports.FederatedIdentity{
		Provider:      provider,
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
	}, nil
}
