package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for StockDeck.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int

	DatabaseURL string
	RedisURL    string

	JWTPrivateKeyPEM  string
	JWTPublicKeyPEM   string
	JWTKeyID          string
	AllowEphemeralJWT bool

	BcryptCost int

	SessionTTL      time.Duration
	CodeTTL         time.Duration
	CodeLength      int
	LockoutDuration time.Duration
	FailedThreshold int

	CodeAttemptThreshold int
	CodeAttemptWindow    time.Duration

	StatsWindow time.Duration

	OAuthGoogleUserInfoURL string
	OAuthGitHubUserInfoURL string
	OAuthHTTPTimeout       time.Duration

	PostmarkServerToken  string
	PostmarkAccountToken string
	SenderEmail          string
	MailDevDir           string

	SweepInterval time.Duration

	MaxDBConns int32
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Mail struct {
		SenderEmail string `yaml:"sender_email"`
		DevDir      string `yaml:"dev_dir"`
	} `yaml:"mail"`
	OAuth struct {
		GoogleUserInfoURL string `yaml:"google_userinfo_url"`
		GitHubUserInfoURL string `yaml:"github_userinfo_url"`
	} `yaml:"oauth"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:              "stockdeck-api",
		HTTPPort:               8080,
		JWTKeyID:               "stockdeck-key-1",
		AllowEphemeralJWT:      true,
		BcryptCost:             12,
		SessionTTL:             30 * 24 * time.Hour,
		CodeTTL:                10 * time.Minute,
		CodeLength:             6,
		LockoutDuration:        30 * time.Minute,
		FailedThreshold:        5,
		CodeAttemptThreshold:   10,
		CodeAttemptWindow:      15 * time.Minute,
		StatsWindow:            30 * 24 * time.Hour,
		OAuthGoogleUserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		OAuthGitHubUserInfoURL: "https://api.github.com/user",
		OAuthHTTPTimeout:       8 * time.Second,
		MailDevDir:             "tmp/mail",
		SweepInterval:          time.Hour,
		MaxDBConns:             20,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Mail.SenderEmail != "" {
			cfg.SenderEmail = f.Mail.SenderEmail
		}
		if f.Mail.DevDir != "" {
			cfg.MailDevDir = f.Mail.DevDir
		}
		if f.OAuth.GoogleUserInfoURL != "" {
			cfg.OAuthGoogleUserInfoURL = f.OAuth.GoogleUserInfoURL
		}
		if f.OAuth.GitHubUserInfoURL != "" {
			cfg.OAuthGitHubUserInfoURL = f.OAuth.GitHubUserInfoURL
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.JWTPrivateKeyPEM = envOrDefault("JWT_PRIVATE_KEY_PEM", cfg.JWTPrivateKeyPEM)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.JWTKeyID = envOrDefault("JWT_KEY_ID", cfg.JWTKeyID)
	cfg.AllowEphemeralJWT = envBool("JWT_ALLOW_EPHEMERAL", cfg.AllowEphemeralJWT)
	cfg.PostmarkServerToken = envOrDefault("POSTMARK_SERVER_TOKEN", cfg.PostmarkServerToken)
	cfg.PostmarkAccountToken = envOrDefault("POSTMARK_ACCOUNT_TOKEN", cfg.PostmarkAccountToken)
	cfg.SenderEmail = envOrDefault("MAIL_SENDER_EMAIL", cfg.SenderEmail)
	cfg.MailDevDir = envOrDefault("MAIL_DEV_DIR", cfg.MailDevDir)
	cfg.OAuthGoogleUserInfoURL = envOrDefault("OAUTH_GOOGLE_USERINFO_URL", cfg.OAuthGoogleUserInfoURL)
	cfg.OAuthGitHubUserInfoURL = envOrDefault("OAUTH_GITHUB_USERINFO_URL", cfg.OAuthGitHubUserInfoURL)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.CodeLength = envInt("RESET_CODE_LENGTH", cfg.CodeLength)
	cfg.FailedThreshold = envInt("FAILED_LOGIN_THRESHOLD", cfg.FailedThreshold)
	cfg.CodeAttemptThreshold = envInt("RESET_CODE_ATTEMPT_THRESHOLD", cfg.CodeAttemptThreshold)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.SessionTTL = time.Duration(envInt("SESSION_EXPIRY_DAYS", int(cfg.SessionTTL.Hours()/24))) * 24 * time.Hour
	cfg.CodeTTL = time.Duration(envInt("RESET_CODE_TTL_MINUTES", int(cfg.CodeTTL.Minutes()))) * time.Minute
	cfg.LockoutDuration = time.Duration(envInt("ACCOUNT_LOCKOUT_MINUTES", int(cfg.LockoutDuration.Minutes()))) * time.Minute
	cfg.CodeAttemptWindow = time.Duration(envInt("RESET_CODE_ATTEMPT_WINDOW_MINUTES", int(cfg.CodeAttemptWindow.Minutes()))) * time.Minute
	cfg.StatsWindow = time.Duration(envInt("STATS_WINDOW_DAYS", int(cfg.StatsWindow.Hours()/24))) * 24 * time.Hour
	cfg.OAuthHTTPTimeout = time.Duration(envInt("OAUTH_HTTP_TIMEOUT_SECONDS", int(cfg.OAuthHTTPTimeout.Seconds()))) * time.Second
	cfg.SweepInterval = time.Duration(envInt("SWEEP_INTERVAL_MINUTES", int(cfg.SweepInterval.Minutes()))) * time.Minute

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if (cfg.JWTPrivateKeyPEM == "" || cfg.JWTPublicKeyPEM == "") && !cfg.AllowEphemeralJWT {
		return Config{}, fmt.Errorf("missing JWT_PRIVATE_KEY_PEM or JWT_PUBLIC_KEY_PEM")
	}
	if cfg.CodeLength < 4 || cfg.CodeLength > 10 {
		return Config{}, fmt.Errorf("RESET_CODE_LENGTH must be between 4 and 10")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}
