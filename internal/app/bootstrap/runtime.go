package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cacheadapter "github.com/stockdeck/stockdeck/internal/adapters/cache"
	emailadapter "github.com/stockdeck/stockdeck/internal/adapters/email"
	httpadapter "github.com/stockdeck/stockdeck/internal/adapters/http"
	"github.com/stockdeck/stockdeck/internal/adapters/postgres"
	"github.com/stockdeck/stockdeck/internal/adapters/security"
	"github.com/stockdeck/stockdeck/internal/application"
	"github.com/stockdeck/stockdeck/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	service    *application.Service
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping stockdeck", "http_port", cfg.HTTPPort)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	repos := postgres.NewRepositories(db)

	tokenSigner, err := security.NewJWTSigner(cfg.JWTKeyID, cfg.JWTPrivateKeyPEM, cfg.JWTPublicKeyPEM)
	if err != nil {
		if !cfg.AllowEphemeralJWT {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init jwt signer: %w", err)
		}
		logger.Warn("using ephemeral JWT keys for local/dev runtime")
		tokenSigner, err = security.NewEphemeralJWTSigner(cfg.JWTKeyID)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init ephemeral jwt signer: %w", err)
		}
	}

	mailer, err := buildMailer(cfg, logger)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, err
	}

	federated := security.NewUserInfoVerifier(security.FederatedVerifierConfig{
		HTTPClient: &http.Client{Timeout: cfg.OAuthHTTPTimeout},
		Providers: map[string]security.FederatedProviderConfig{
			"google": {UserInfoURL: cfg.OAuthGoogleUserInfoURL},
			"github": {UserInfoURL: cfg.OAuthGitHubUserInfoURL},
		},
	})

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			DefaultRole:          "USER",
			SessionTTL:           cfg.SessionTTL,
			CodeTTL:              cfg.CodeTTL,
			CodeLength:           cfg.CodeLength,
			FailedLoginThreshold: cfg.FailedThreshold,
			LockoutDuration:      cfg.LockoutDuration,
			CodeAttemptThreshold: cfg.CodeAttemptThreshold,
			CodeAttemptWindow:    cfg.CodeAttemptWindow,
			StatsWindow:          cfg.StatsWindow,
		},
		Users:     repos.Users,
		Products:  repos.Products,
		Recovery:  repos.Recovery,
		Attempts:  repos.Attempts,
		Lockouts:  cacheadapter.NewRedisLockoutStore(redisClient),
		Mailer:    mailer,
		Federated: federated,
		Hasher:    security.NewBcryptHasher(cfg.BcryptCost),
		Signer:    tokenSigner,
	})

	handler := httpadapter.NewHandler(svc)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		service:    svc,
		cleanupFn: func(ctx context.Context) {
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

// buildMailer prefers Postmark when a server token is configured and falls
// back to the filesystem dev sender otherwise.
func buildMailer(cfg Config, logger *slog.Logger) (ports.MailSender, error) {
	if cfg.PostmarkServerToken != "" {
		sender, err := emailadapter.NewPostmarkSender(emailadapter.Config{
			PostmarkServerToken:  cfg.PostmarkServerToken,
			PostmarkAccountToken: cfg.PostmarkAccountToken,
			SenderEmail:          cfg.SenderEmail,
		})
		if err != nil {
			return nil, fmt.Errorf("init postmark sender: %w", err)
		}
		return sender, nil
	}
	logger.Warn("no postmark token configured, writing recovery emails to disk", "dir", cfg.MailDevDir)
	return emailadapter.NewDevSender(cfg.MailDevDir), nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}

// RunSweeper periodically reclaims expired recovery codes. Expiry is enforced
// at lookup time, so the sweep is purely space reclamation and can run at a
// relaxed interval.
func (r *Runtime) RunSweeper(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("recovery code sweeper started", "interval", r.cfg.SweepInterval.String())
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			r.cleanupFn(shutdownCtx)
			return nil
		case <-ticker.C:
			removed, err := r.service.PurgeExpiredCodes(ctx)
			if err != nil {
				r.logger.Error("purge expired recovery codes", "error", err)
				continue
			}
			if removed > 0 {
				r.logger.Info("purged expired recovery codes", "removed", removed)
			}
		}
	}
}
