package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"

	"github.com/stockdeck/stockdeck/internal/ports"
)

// ErrSendFailed wraps provider-level delivery failures. Callers log it and
// move on; it never reaches an API response.
var ErrSendFailed = errors.New("failed to send email")

// Config holds outbound email settings. Tokens are optional so local runs
// can fall back to the dev sender.
type Config struct {
	PostmarkServerToken  string
	PostmarkAccountToken string
	SenderEmail          string
}

// PostmarkSender delivers recovery codes through Postmark's transactional
// API. It is constructed once at startup and injected; there is no lazy
// module-level client.
type PostmarkSender struct {
	client *postmark.Client
	sender string
}

var _ ports.MailSender = (*PostmarkSender)(nil)

func NewPostmarkSender(cfg Config) (*PostmarkSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, errors.New("postmark server token is required")
	}
	if cfg.SenderEmail == "" {
		return nil, errors.New("sender email is required")
	}
	return &PostmarkSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		sender: cfg.SenderEmail,
	}, nil
}

// SendRecoveryCode renders and dispatches the recovery email. This is the
// only path that externalizes the plaintext code; the code is never logged
// here or anywhere else.
func (s *PostmarkSender) SendRecoveryCode(ctx context.Context, address, code string) error {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.sender,
		To:       address,
		Subject:  "Password Reset Code",
		Tag:      "password-recovery",
		HTMLBody: recoveryBodyHTML(code),
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

func recoveryBodyHTML(code string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; padding: 20px;">
  <h2>Password Reset Request</h2>
  <p>Your one-time code is:</p>
  <div style="background-color: #f0f0f0; padding: 15px; border-radius: 5px; text-align: center; margin: 20px 0;">
    <p style="font-size: 32px; font-weight: bold; letter-spacing: 5px; margin: 0; color: #333;">%s</p>
  </div>
  <p><strong>This code will expire in 10 minutes.</strong></p>
  <p>Enter this code on the password reset page to continue.</p>
  <p style="color: #666; font-size: 12px; margin-top: 20px;">
    If you didn't request a password reset, please ignore this email and do not share this code with anyone.
  </p>
</div>`, code)
}
