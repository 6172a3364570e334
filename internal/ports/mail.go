package ports

import "context"

// MailSender delivers the plaintext recovery code out-of-band. This is the
// only boundary the plaintext ever crosses; implementations must not log it.
// Callers treat delivery failure as non-fatal so the public API response
// shape cannot reveal whether a send happened.
type MailSender interface {
	SendRecoveryCode(ctx context.Context, email, code string) error
}
