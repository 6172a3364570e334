package domain

import "fmt"

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

// ValidatePassword enforces the baseline credential policy.
// Length bounds only; complexity classes are deliberately not required so
// recovery resets accept the same passwords signup does.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be <= %d characters", ErrInvalidInput, maxPasswordLength)
	}
	return nil
}
