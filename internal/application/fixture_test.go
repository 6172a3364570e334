package application_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stockdeck/stockdeck/internal/application"
	"github.com/stockdeck/stockdeck/internal/domain"
	"github.com/stockdeck/stockdeck/internal/ports"
)

func newFixture() *fixture {
	return newFixtureWithConfig(defaultTestConfig())
}

func defaultTestConfig() application.Config {
	return application.Config{
		DefaultRole:          "USER",
		SessionTTL:           30 * 24 * time.Hour,
		CodeTTL:              10 * time.Minute,
		CodeLength:           6,
		FailedLoginThreshold: 5,
		LockoutDuration:      30 * time.Minute,
		CodeAttemptThreshold: 50,
		CodeAttemptWindow:    15 * time.Minute,
		StatsWindow:          30 * 24 * time.Hour,
	}
}

func newFixtureWithConfig(cfg application.Config) *fixture {
	users := &fakeUsers{
		byEmail: make(map[string]domain.User),
		byID:    make(map[uuid.UUID]domain.User),
	}
	products := &fakeProducts{byID: make(map[uuid.UUID]domain.Product)}
	recovery := &fakeRecovery{byEmail: make(map[string]domain.RecoveryCode)}
	attempts := &fakeLoginAttempts{}
	lockouts := &fakeLockouts{state: map[string]ports.LockoutState{}}
	mailer := &fakeMailer{}
	verifier := &fakeVerifier{
		identities: map[string]ports.FederatedIdentity{
			"token-ok": {
				Provider:      "google",
				Subject:       "provider-sub-1",
				Email:         "federated@example.com",
				EmailVerified: true,
				Name:          "Federated User",
			},
		},
	}
	signer := &fakeSigner{tokens: map[string]ports.AuthClaims{}}

	svc := application.NewService(application.Dependencies{
		Config:    cfg,
		Users:     users,
		Products:  products,
		Recovery:  recovery,
		Attempts:  attempts,
		Lockouts:  lockouts,
		Mailer:    mailer,
		Federated: verifier,
		Hasher:    &fakeHasher{},
		Signer:    signer,
	})

	return &fixture{
		service:  svc,
		users:    users,
		products: products,
		recovery: recovery,
		lockouts: lockouts,
		mailer:   mailer,
		verifier: verifier,
		signer:   signer,
	}
}

type fixture struct {
	service  *application.Service
	users    *fakeUsers
	products *fakeProducts
	recovery *fakeRecovery
	lockouts *fakeLockouts
	mailer   *fakeMailer
	verifier *fakeVerifier
	signer   *fakeSigner
}

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]domain.User
	byID    map[uuid.UUID]domain.User
}

func (f *fakeUsers) Create(_ context.Context, params ports.CreateUserParams) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[params.Email]; exists {
		return domain.User{}, domain.ErrConflict
	}
	user := domain.User{
		UserID:       uuid.New(),
		Email:        params.Email,
		Name:         params.Name,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		Provider:     params.Provider,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}
	f.byEmail[user.Email] = user
	f.byID[user.UserID] = user
	return user, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) GetByID(_ context.Context, userID uuid.UUID) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[userID]
	if !ok {
		return domain.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = updatedAt
	f.byID[userID] = user
	f.byEmail[user.Email] = user
	return nil
}

type fakeRecovery struct {
	mu      sync.Mutex
	byEmail map[string]domain.RecoveryCode
}

func (f *fakeRecovery) Issue(_ context.Context, email, codeHash string, userID *uuid.UUID, createdAt, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byEmail[email] = domain.RecoveryCode{
		CodeID:    uuid.New(),
		Email:     email,
		CodeHash:  codeHash,
		UserID:    userID,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (f *fakeRecovery) Lookup(_ context.Context, email, codeHash string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.byEmail[email]
	if !ok {
		return false, nil
	}
	return code.CodeHash == codeHash && code.ExpiresAt.After(now), nil
}

func (f *fakeRecovery) Consume(_ context.Context, email, codeHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if code, ok := f.byEmail[email]; ok && code.CodeHash == codeHash {
		delete(f.byEmail, email)
	}
	return nil
}

func (f *fakeRecovery) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for email, code := range f.byEmail {
		if !code.ExpiresAt.After(now) {
			delete(f.byEmail, email)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeRecovery) get(email string) (domain.RecoveryCode, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.byEmail[email]
	return code, ok
}

func (f *fakeRecovery) expireNow(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.byEmail[email]
	if !ok {
		return
	}
	code.ExpiresAt = time.Now().UTC()
	f.byEmail[email] = code
}

type fakeLoginAttempts struct {
	mu       sync.Mutex
	attempts []domain.LoginAttempt
}

func (f *fakeLoginAttempts) Insert(_ context.Context, attempt domain.LoginAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, attempt)
	return nil
}

type fakeLockouts struct {
	mu    sync.Mutex
	state map[string]ports.LockoutState
}

func (f *fakeLockouts) Get(_ context.Context, key string) (ports.LockoutState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state[key], nil
}

func (f *fakeLockouts) RecordFailure(_ context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.state[key]
	state.FailedCount++
	if threshold > 0 && state.FailedCount >= threshold {
		until := now.Add(lockoutWindow)
		state.LockedUntil = &until
	}
	f.state[key] = state
	return state, nil
}

func (f *fakeLockouts) Clear(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.state, key)
	return nil
}

type sentMail struct {
	Email string
	Code  string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (f *fakeMailer) SendRecoveryCode(_ context.Context, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, sentMail{Email: email, Code: code})
	return nil
}

func (f *fakeMailer) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeMailer) sentMails() []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMail, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeMailer) lastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Code
}

type fakeVerifier struct {
	identities map[string]ports.FederatedIdentity
}

func (f *fakeVerifier) Verify(_ context.Context, provider, accessToken string) (ports.FederatedIdentity, error) {
	identity, ok := f.identities[accessToken]
	if !ok || identity.Provider != provider {
		return ports.FederatedIdentity{}, domain.ErrUnauthorized
	}
	return identity, nil
}

type fakeHasher struct{}

func (f *fakeHasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (f *fakeHasher) Compare(hash, password string) error {
	if hash != "hash:"+password {
		return errors.New("hash mismatch")
	}
	return nil
}

type fakeSigner struct {
	mu     sync.Mutex
	tokens map[string]ports.AuthClaims
}

func (f *fakeSigner) Sign(claims ports.AuthClaims) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := uuid.NewString()
	f.tokens[token] = claims
	return token, nil
}

func (f *fakeSigner) ParseAndValidate(token string) (ports.AuthClaims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claims, ok := f.tokens[token]
	if !ok {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	return claims, nil
}

type fakeProducts struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Product
}

func (f *fakeProducts) Create(_ context.Context, params ports.ProductCreateParams) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product := domain.Product{
		ProductID:   uuid.New(),
		UserID:      params.UserID,
		Name:        params.Name,
		Description: params.Description,
		Category:    params.Category,
		Price:       params.Price,
		Stock:       params.Stock,
		Status:      params.Status,
		CreatedAt:   params.CreatedAt,
		UpdatedAt:   params.CreatedAt,
	}
	f.byID[product.ProductID] = product
	return product, nil
}

func (f *fakeProducts) GetByID(_ context.Context, userID, productID uuid.UUID) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.byID[productID]
	if !ok || product.UserID != userID {
		return domain.Product{}, domain.ErrNotFound
	}
	return product, nil
}

func (f *fakeProducts) List(_ context.Context, userID uuid.UUID, filter ports.ProductFilter, limit, offset int) ([]domain.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := make([]domain.Product, 0)
	for _, product := range f.byID {
		if product.UserID != userID {
			continue
		}
		if !matchesFilter(product, filter) {
			continue
		}
		matched = append(matched, product)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func matchesFilter(product domain.Product, filter ports.ProductFilter) bool {
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(product.Name), needle) &&
			!strings.Contains(strings.ToLower(product.Description), needle) {
			return false
		}
	}
	if filter.Category != "" && product.Category != filter.Category {
		return false
	}
	if filter.MinPrice != nil && product.Price < *filter.MinPrice {
		return false
	}
	if filter.MaxPrice != nil && product.Price > *filter.MaxPrice {
		return false
	}
	if filter.InStock != nil {
		inStock := product.Status == domain.StatusInStock
		if inStock != *filter.InStock {
			return false
		}
	}
	return true
}

func (f *fakeProducts) Update(_ context.Context, userID, productID uuid.UUID, params ports.ProductUpdateParams) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.byID[productID]
	if !ok || product.UserID != userID {
		return domain.Product{}, domain.ErrNotFound
	}
	if params.Name != nil {
		product.Name = *params.Name
	}
	if params.Description != nil {
		product.Description = *params.Description
	}
	if params.Category != nil {
		product.Category = *params.Category
	}
	if params.Price != nil {
		product.Price = *params.Price
	}
	if params.Stock != nil {
		product.Stock = *params.Stock
	}
	if params.Status != nil {
		product.Status = *params.Status
	}
	product.UpdatedAt = params.UpdatedAt
	f.byID[productID] = product
	return product, nil
}

func (f *fakeProducts) Delete(_ context.Context, userID, productID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.byID[productID]
	if !ok || product.UserID != userID {
		return domain.ErrNotFound
	}
	delete(f.byID, productID)
	return nil
}

func (f *fakeProducts) Stats(_ context.Context, userID uuid.UUID, since time.Time) (ports.ProductStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := ports.ProductStats{
		PriceBuckets: map[string]int64{"0-100": 0, "100-500": 0, "500-1000": 0, "1000+": 0},
	}
	categories := map[string]int64{}
	days := map[string]int64{}
	for _, product := range f.byID {
		if product.UserID != userID {
			continue
		}
		stats.Total++
		categories[product.Category]++
		if product.Status == domain.StatusInStock {
			stats.InStock++
		} else {
			stats.OutOfStock++
		}
		switch {
		case product.Price < 100:
			stats.PriceBuckets["0-100"]++
		case product.Price < 500:
			stats.PriceBuckets["100-500"]++
		case product.Price < 1000:
			stats.PriceBuckets["500-1000"]++
		default:
			stats.PriceBuckets["1000+"]++
		}
		if !product.CreatedAt.Before(since) {
			days[product.CreatedAt.Format("2006-01-02")]++
		}
	}
	for category, count := range categories {
		stats.Categories = append(stats.Categories, ports.CategoryCount{Category: category, Count: count})
	}
	for day, count := range days {
		stats.CreatedByDay = append(stats.CreatedByDay, ports.DayCount{Date: day, Count: count})
	}
	sort.Slice(stats.Categories, func(i, j int) bool { return stats.Categories[i].Category < stats.Categories[j].Category })
	sort.Slice(stats.CreatedByDay, func(i, j int) bool { return stats.CreatedByDay[i].Date < stats.CreatedByDay[j].Date })
	return stats, nil
}
