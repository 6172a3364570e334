package application

import (
	"time"

	"github.com/stockdeck/stockdeck/internal/ports"
)

type Service struct {
	cfg      Config
	users    ports.UserRepository
	products ports.ProductRepository
	recovery ports.RecoveryCodeRepository
	attempts ports.LoginAttemptRepository
	lockouts ports.LockoutStore
	mailer   ports.MailSender
	verifier ports.FederatedVerifier
	hasher   ports.PasswordHasher
	signer   ports.TokenSigner
	nowFn    func() time.Time
}

type Dependencies struct {
	Config    Config
	Users     ports.UserRepository
	Products  ports.ProductRepository
	Recovery  ports.RecoveryCodeRepository
	Attempts  ports.LoginAttemptRepository
	Lockouts  ports.LockoutStore
	Mailer    ports.MailSender
	Federated ports.FederatedVerifier
	Hasher    ports.PasswordHasher
	Signer    ports.TokenSigner
}

func NewService(deps Dependencies) *Service {
	return &Service{
		cfg:      deps.Config,
		users:    deps.Users,
		products: deps.Products,
		recovery: deps.Recovery,
		attempts: deps.Attempts,
		lockouts: deps.Lockouts,
		mailer:   deps.Mailer,
		verifier: deps.Federated,
		hasher:   deps.Hasher,
		signer:   deps.Signer,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}
