package security

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher hashes account credentials with bcrypt. The same hasher
// serves signup and recovery resets so both paths produce comparable
// digests.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher builds a hasher with the configured work factor. Costs
// outside bcrypt's supported range fall back to the library default rather
// than failing startup.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
